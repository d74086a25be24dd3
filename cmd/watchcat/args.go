package main

import "strings"

// splitChildArgs separates the program's argument tokens from watchcat's own.
// Every token after -a or --args (or the value of --args=...) belongs to the
// program verbatim. Scanning stops at "--".
func splitChildArgs(args []string) (own, child []string, ok bool) {
	for i, a := range args {
		switch {
		case a == "--":
			return args, nil, false
		case a == "-a" || a == "--args":
			return args[:i:i], append([]string{}, args[i+1:]...), true
		case strings.HasPrefix(a, "--args="):
			child = append([]string{strings.TrimPrefix(a, "--args=")}, args[i+1:]...)
			return args[:i:i], child, true
		}
	}
	return args, nil, false
}
