package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/vvatanabe/scm"
)

func printMessageWithData(w io.Writer, message string, data any) {
	dump, err := marshalIndent(data)
	if err != nil {
		printError(w, err)
		return
	}
	fmt.Fprintf(w, "%s%s\n", message, dump)
}

func marshalIndent(v any) ([]byte, error) {
	dump, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return dump, nil
}

func printError(w io.Writer, err any) {
	fmt.Fprintf(w, "ERROR: %v\n", err)
}

func errorCLIModeRestriction(command string) error {
	return fmt.Errorf("%s command can be only used in the Interactive mode. Call first `id <id>`", command)
}

func errorShipmentNotFound(id string) error {
	return fmt.Errorf("Shipment's [%s] not found!", id)
}

func errorNotificationNotFound(id string) error {
	return fmt.Errorf("Notification's [%s] not found!", id)
}

func errorWithID(err error, id string) error {
	return fmt.Errorf("%w, ID: %s", err, id)
}

func printMetrics(w io.Writer, metrics []scm.PerformanceMetric) {
	fmt.Fprintln(w, "Performance metrics:")
	for _, m := range metrics {
		fmt.Fprintf(w, "* %s: %g%s\n", m.Label, m.Value, m.Unit)
	}
}
