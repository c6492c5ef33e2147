package policy

// Config carries the deployment toggles the rules depend on.
type Config struct {
	// CourseCreationRequiresTeacher limits course creation to users whose
	// occupation is teacher. When false any authenticated user may create.
	CourseCreationRequiresTeacher bool
}

// DefaultConfig mirrors the production defaults.
func DefaultConfig() Config {
	return Config{CourseCreationRequiresTeacher: true}
}

// Evaluator applies the rules under a fixed Config.
type Evaluator struct {
	cfg Config
}

func NewEvaluator(cfg Config) *Evaluator {
	return &Evaluator{cfg: cfg}
}

func (e *Evaluator) Config() Config {
	return e.cfg
}
