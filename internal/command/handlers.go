package command

import (
	"fmt"
	"strings"
)

// handlePrint handles print commands.
// Usage: print "<text>" [--printer <id>]
func (e *Executor) handlePrint(args []string) *Result {
	if len(args) < 1 {
		return &Result{
			Success: false,
			Error:   `usage: print "<text>" [--printer <id>]`,
		}
	}

	var printerID string
	var textParts []string

	for i := 0; i < len(args); i++ {
		if args[i] == "--printer" {
			if i+1 >= len(args) {
				return &Result{
					Success: false,
					Error:   "--printer requires a printer id",
				}
			}
			printerID = args[i+1]
			i++
			continue
		}
		textParts = append(textParts, args[i])
	}

	text := strings.Join(textParts, " ")
	if text == "" {
		return &Result{
			Success: false,
			Error:   "nothing to print",
		}
	}

	if printerID != "" && e.manager.GetPrinter(printerID) == nil {
		return &Result{
			Success: false,
			Error:   fmt.Sprintf("printer not found: %s", printerID),
		}
	}

	jobID := e.queue.Enqueue(printerID, text)

	return &Result{
		Success: true,
		Message: "print job queued",
		Data: map[string]interface{}{
			"job_id": jobID,
		},
	}
}

// handlePrinter handles printer subcommands: list, rename
func (e *Executor) handlePrinter(args []string) *Result {
	if len(args) == 0 {
		return &Result{
			Success: false,
			Error:   "usage: printer <list|rename>",
		}
	}

	switch args[0] {
	case "list":
		printers := e.manager.GetAllPrinters()

		printersData := make([]map[string]interface{}, len(printers))
		for i, p := range printers {
			printersData[i] = map[string]interface{}{
				"id":          p.ID,
				"type":        p.Type,
				"description": p.Description,
				"name":        p.Name,
			}
		}

		return &Result{
			Success: true,
			Data: map[string]interface{}{
				"printers": printersData,
			},
		}

	case "rename":
		if len(args) < 3 {
			return &Result{
				Success: false,
				Error:   "usage: printer rename <id> <name>",
			}
		}

		id := args[1]
		name := strings.Join(args[2:], " ")

		if !e.manager.SetPrinterName(id, name) {
			return &Result{
				Success: false,
				Error:   fmt.Sprintf("printer not found: %s", id),
			}
		}

		return &Result{
			Success: true,
			Message: fmt.Sprintf("printer renamed to %q", name),
		}

	default:
		return &Result{
			Success: false,
			Error:   fmt.Sprintf("unknown printer subcommand: %s", args[0]),
		}
	}
}

// handleJob handles job subcommands: list, status, clear
func (e *Executor) handleJob(args []string) *Result {
	if len(args) == 0 {
		return &Result{
			Success: false,
			Error:   "usage: job <list|status|clear>",
		}
	}

	switch args[0] {
	case "list":
		jobs := e.queue.GetAllJobs()

		jobsData := make([]map[string]interface{}, len(jobs))
		for i, job := range jobs {
			jobsData[i] = map[string]interface{}{
				"id":         job.ID,
				"printer_id": job.PrinterID,
				"status":     job.Status,
				"retries":    job.Retries,
			}
		}

		return &Result{
			Success: true,
			Data: map[string]interface{}{
				"jobs": jobsData,
			},
		}

	case "status":
		if len(args) < 2 {
			return &Result{
				Success: false,
				Error:   "usage: job status <id>",
			}
		}

		job := e.queue.GetJob(args[1])
		if job == nil {
			return &Result{
				Success: false,
				Error:   fmt.Sprintf("job not found: %s", args[1]),
			}
		}

		data := map[string]interface{}{
			"id":         job.ID,
			"printer_id": job.PrinterID,
			"status":     job.Status,
			"retries":    job.Retries,
		}
		if job.Message != "" {
			data["message"] = job.Message
		}
		if job.Error != nil {
			data["error"] = job.Error.Error()
		}

		return &Result{
			Success: true,
			Data:    data,
		}

	case "clear":
		e.queue.ClearCompleted()
		return &Result{
			Success: true,
			Message: "completed jobs cleared",
		}

	default:
		return &Result{
			Success: false,
			Error:   fmt.Sprintf("unknown job subcommand: %s", args[0]),
		}
	}
}

// handleDetect re-scans for printers
func (e *Executor) handleDetect(args []string) *Result {
	printers, err := e.manager.DetectPrinters()
	if err != nil {
		return &Result{
			Success: false,
			Error:   fmt.Sprintf("detection failed: %v", err),
		}
	}

	return &Result{
		Success: true,
		Message: fmt.Sprintf("found %d printer(s)", len(printers)),
	}
}

// handleHelp lists the available commands
func (e *Executor) handleHelp(args []string) *Result {
	return &Result{
		Success: true,
		Message: `Commands:
  print "<text>" [--printer <id>]  - queue a text print job
  printer list                     - list detected printers
  printer rename <id> <name>       - set a custom printer name
  job list                         - list print jobs
  job status <id>                  - show one job
  job clear                        - drop completed jobs
  detect                           - re-scan for printers
  help                             - this message`,
	}
}
