// Package ui holds the terminal styles shared by CLI commands.
//
// Styling is applied to headers and status markers only. Lines that other tools may parse
// (the per-track "Downloading:" and "Error downloading" lines and the run summary) are written
// unstyled by the tasks package.
package ui
