/*
Package dsl provides a fluent Go builder for surveys.

It is an alternative to JSON, YAML, CSV or HCL definitions, handy for tests
and for surveys generated at runtime. The builder emits the same
configuration records a spreadsheet would, so everything goes through the
regular compiler.

Example usage:

	b := dsl.New()

	b.Add("role").
		Question("What is your role?", "Manager", "Senior Manager", "IC").
		When("Manager", "team_size").
		When("IC", "thanks")

	b.Add("team_size").
		Question("How many reports?", "1-5", "6+").
		Go("thanks")

	b.Add("thanks").
		Info("Thanks for taking part!").
		Submit()

	loader, err := b.Build()
	// ... pass loader to survey.New(...)
*/
package dsl
