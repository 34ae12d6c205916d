package main

// Execute is not a skill; registry machinery is excluded from discovery.
func Execute(input map[string]any) (map[string]any, error) {
	return input, nil
}
