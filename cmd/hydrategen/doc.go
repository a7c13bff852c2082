// Command hydrategen generates hydration registrations for a package.
//
// Reflection can walk struct fields and interface mappings at run time, but
// it cannot discover which functions construct a type or which constants
// make up an enumeration. hydrategen closes that gap: you list them in a
// small *.hydrate.json spec next to your models and it writes a
// RegisterHydration function that declares them on a *hydrate.Registry.
//
// Spec format (*.hydrate.json)
//
//	{
//	  "package": "models",
//	  "types": [
//	    { "name": "Order", "constructors": ["NewOrder"] },
//	    { "name": "Status", "enum": ["StatusOpen", "StatusShipped"] }
//	  ],
//	  "abstracts": [
//	    { "interface": "Payment", "candidates": ["*Card", "Invoice"] }
//	  ]
//	}
//
// "imports.hydrate" may override the hydrate import path. When the owner
// file imports hydrate under an alias, the generated file uses that alias.
//
// Typical go:generate usage
//
// Put this in the owner Go file (same package directory as the spec):
//
//	//go:generate go run ../../cmd/hydrategen -spec ./models.hydrate.json -out ./hydrate.gen.go
//
// Generated API
//
//   - RegisterHydration(r *hydrate.Registry) error
//   - HydrationCatalogue() hydrate.Catalogue, one entry per listed type
//
// Example wiring
//
//	reg := hydrate.NewRegistry()
//	if err := models.RegisterHydration(reg); err != nil {
//		return err
//	}
//	order, err := hydrate.Hydrate[models.Order](ctx, reg)
//
// Invalid specs (missing package, duplicate names, abstracts without
// candidates, constructors not declared in the package) stop generation with
// a descriptive panic. Output is gofmt-ed and written atomically.
package main
