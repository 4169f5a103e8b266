// Package script runs button handlers as child processes.
//
// A handler's source text is passed as the final argument to a configured
// interpreter (sh -c by default). The child runs in its own process group
// with a few GRAYDECK_* variables describing the event, so a handler can
// call back into the control API:
//
//	GRAYDECK_EVENT   init, press or release
//	GRAYDECK_SLOT    slot index, empty for init
//	GRAYDECK_BUTTON  occupant name, if any
//	GRAYDECK_API     base URL of the control API, if enabled
//
// Run blocks until the child exits, not until programs it started in the
// background do. Output is logged line by line.
package script
