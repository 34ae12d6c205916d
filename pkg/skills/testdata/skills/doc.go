// Package main holds sample skills used by discovery tests.
package main
