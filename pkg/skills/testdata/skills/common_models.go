package main

// FileSet is shared by skills in this directory.
type FileSet struct {
	Files []string
}
