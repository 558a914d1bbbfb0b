// Package cogs composes template searches into small programmable agents.
//
// A Bot holds a Memory of visual maps and a batch of commands. Each visual
// map pairs a reference image with named descriptors; a descriptor is a
// pipeline of What steps (find a crop of the reference in the current frame)
// and Where steps (snap a located region to the configured zone it overlaps
// most). Commands share one interface so they nest freely:
//
//	Batch   runs every command on the same input, collecting outputs in order
//	Pipe    threads each output into the next command, aborting on error
//	Locate  evaluates a descriptor, polling a live source until it matches
//	Look    acquires a frame and runs a single What step on it
//	Lookout locates several labels inside one perceived region
//	Zoomin  feeds one perceived region to several actions
//	Click, Run, Write, Mark  act on the desktop or record debugging output
//
// Commands run synchronously on the caller's goroutine. The only blocking
// point is the polling loop in Locate, which honours context cancellation and
// the bounds of its PollPolicy.
package cogs
