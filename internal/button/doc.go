// Package button holds deck button setups and the named button registry.
//
// A Setup pairs an optional up face and down face with an optional up
// handler and down handler. Setups are immutable once built; changing a
// named button replaces its Setup in the Registry.
//
// Slots refer to setups through an Occupant, which is either a name
// looked up in the Registry each time it is used, or an inline Setup.
// Named lookups are never cached, so replacing a named setup is visible
// to every slot that refers to it. A name missing from the registry
// resolves to nothing and is not an error.
//
// The registry always contains the reserved name "empty" (EmptyName). It
// is synthesized with a plain black up face unless the layout declares a
// button with that name, in which case the declared one wins.
package button
