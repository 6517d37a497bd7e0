/*
Package registry associates Go entity types with their storage bindings.

A binding carries the entity's kind tag and the function that builds its
six-index key tuple from entity content:

	registry.RegisterBinding(registry.Binding[models.Composition]{
	    Kind: keys.KindComposition,
	    Keys: compositionKeys,
	})

Bindings are registered during initialization, typically in init()
functions next to the entity definitions. The registry is thread-safe;
duplicate registration panics.
*/
package registry
