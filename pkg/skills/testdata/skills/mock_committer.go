// Records a commit of previously validated files.
package main

import "errors"

const Version = "1.0.0"

// Execute commits the validated files with the given message.
func Execute(input map[string]any) (map[string]any, error) {
	message, _ := input["message"].(string)
	if message == "" {
		return nil, errors.New("commit message is required")
	}
	author, _ := input["author"].(string)

	count := 0
	switch files := input["validated_files"].(type) {
	case []string:
		count = len(files)
	case []any:
		count = len(files)
	}

	return map[string]any{
		"committed":       true,
		"message":         message,
		"author":          author,
		"files_committed": count,
	}, nil
}
