package helpers

// ConfigOption changes a configuration of type T. A package with functional options declares
// "type Option helpers.ConfigOption[Config]" and builds its options with OptionFunc.
type ConfigOption[T any] interface {
	Configure(*T) error
}

// OptionFunc is a ConfigOption defined by a function.
type OptionFunc[T any] func(*T) error

func (f OptionFunc[T]) Configure(target *T) error { return f(target) }

// BuildConfig applies the options to a copy of defaults, in order, and stops at the first error.
// The O type parameter lets callers pass a slice of their own option type.
func BuildConfig[T any, O ConfigOption[T]](defaults T, options ...O) (T, error) {
	config := defaults
	for _, o := range options {
		if err := o.Configure(&config); err != nil {
			var empty T
			return empty, err
		}
	}
	return config, nil
}
