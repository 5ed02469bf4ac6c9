package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/domain/lifecycle"
)

// ParseFile reads the lifecycle events in filename. "-" reads stdin.
func ParseFile(filename string) ([]lifecycle.Event, error) {
	var (
		data []byte
		err  error
	)
	if filename == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(filename)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	return ParseEvents(data)
}

// ParseEvents parses one or more events separated by ---. JSON is accepted
// as a subset of YAML.
func ParseEvents(data []byte) ([]lifecycle.Event, error) {
	var events []lifecycle.Event

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	for i := 0; ; i++ {
		var doc yaml.Node
		err := decoder.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse document %d: %w", i, err)
		}
		if isEmpty(&doc) {
			continue
		}

		var event lifecycle.Event
		if err := doc.Decode(&event); err != nil {
			return nil, fmt.Errorf("failed to decode event %d: %w", i, err)
		}
		events = append(events, event)
	}

	if len(events) == 0 {
		return nil, errors.New("no events found")
	}
	return events, nil
}

// isEmpty reports documents holding nothing but comments.
func isEmpty(doc *yaml.Node) bool {
	if len(doc.Content) == 0 {
		return true
	}
	root := doc.Content[0]
	return root.Kind == yaml.ScalarNode && root.Tag == "!!null"
}
