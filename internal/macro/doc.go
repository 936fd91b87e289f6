// Package macro provides recording, sealing and persistence of input
// macros.
//
// # Concepts
//
// A macro is a sealed, ordered sequence of timestamped input events plus
// metadata. Event offsets are relative to the start of recording and
// strictly non-decreasing.
//
// # Recording
//
// A Recorder is fed raw OS events by whoever owns the global capture
// subscription. Start resets the clock, HandleEvent converts and appends,
// Stop seals the result into an immutable Macro. Mouse moves are sampled
// at a bounded rate (pixel threshold plus minimum interval) so recordings
// do not grow without bound.
//
// # Persistence
//
// Macros are stored as versioned JSON documents. Loading validates the
// whole document and rejects malformed files wholesale; key names are
// resolved against a static symbol table, never evaluated. Unknown JSON
// object fields are ignored for forward compatibility, unknown event
// kinds, buttons and key names are not.
package macro
