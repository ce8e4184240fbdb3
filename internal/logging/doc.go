// Package logging configures the structured loggers used by the consumer.
//
// Records are tagged with the unit that emitted them through the FuncKey
// attribute. The text format renders that tag as a line prefix:
//
//	reporter: iteration number: 3
//	supervisor: started pid=4121 run=7f0c...
//
// The JSON format keeps it as a regular field.
package logging
