/*
Package resources locates fonts to work on.

A font may be given as a file path or by name. Names are looked up among the
fonts installed on the system; "Go Sans" is always available.

As font loading may be a time-consuming task, fonts are loaded in an
async/await fashion. Functions named

   Resolve…(…)

will return a promise, which the client will call later to receive the
loaded font. The call to the promise-function will then block until loading
has completed.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package resources

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces to tracing key 'vtt.fonts'.
func tracer() tracing.Trace {
	return tracing.Select("vtt.fonts")
}
