// Package ui renders terminal output for the sync commands.
//
// [Header] frames a message between two star rules and is printed at the start and end of a sync.
//
// [Model] is an interactive review workflow built on bubbletea's Elm architecture:
//  1. [PlanView] : Run a dry sync while showing live progress
//  2. [ReviewView] : Browse the albums missing from the sheet
//  3. [ConfirmView] : Confirm the append
//  4. [AppendView] : Append the reviewed rows
//  5. [ResultView] : Show appended albums or the error
//
// Progress updates flow through a channel from the sync engine and are relayed to the model one message at a time.
package ui
