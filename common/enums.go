// Package common keeps enums shared between configuration and processing
// code, see go:generate directive below.
package common

//go:generate go tool go-enum --names --marshal --mustparse

// OutputMode selects where transformed stylesheets go.
// ENUM(write, inplace, diff)
type OutputMode int

