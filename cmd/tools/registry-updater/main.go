// cmd/tools/registry-updater/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"template-resolver/internal/defaults"
	"template-resolver/internal/models"
	"template-resolver/pkg/registry"
)

// templateTaskTypes must all be registered for the template workers to start.
var templateTaskTypes = []string{
	"resolve-template",
	"list-templates",
	"list-template-types",
	"upsert-template",
	"delete-template",
}

func main() {
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	validatePath := validateCmd.String("path", "", "Path to registry file (embedded registry when empty)")

	catalogCmd := flag.NewFlagSet("catalog", flag.ExitOnError)
	catalogPath := catalogCmd.String("path", "", "Path to default template catalog (embedded catalog when empty)")

	statusCmd := flag.NewFlagSet("status", flag.ExitOnError)
	statusPath := statusCmd.String("path", "pkg/registry/activities.json", "Path to registry file")
	statusTask := statusCmd.String("taskType", "", "Task type to update")
	statusValue := statusCmd.String("value", "", "Implementation status (planned, in-progress, implemented, verified)")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "validate":
		validateCmd.Parse(os.Args[2:])
		if err := validateRegistry(*validatePath); err != nil {
			fmt.Printf("Registry validation failed: %v\n", err)
			os.Exit(1)
		}

	case "catalog":
		catalogCmd.Parse(os.Args[2:])
		if err := describeCatalog(*catalogPath); err != nil {
			fmt.Printf("Catalog validation failed: %v\n", err)
			os.Exit(1)
		}

	case "status":
		statusCmd.Parse(os.Args[2:])
		if *statusTask == "" || *statusValue == "" {
			fmt.Println("Error: taskType and value are required for status.")
			statusCmd.Usage()
			os.Exit(1)
		}
		if err := updateStatus(*statusPath, *statusTask, *statusValue); err != nil {
			fmt.Printf("Error updating activity: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Updated %s to %s\n", *statusTask, *statusValue)

	default:
		help()
	}
}

func loadRegistry(path string) (*registry.ActivityRegistry, error) {
	if path == "" {
		return registry.Default()
	}
	return registry.LoadRegistry(path)
}

func validateRegistry(path string) error {
	reg, err := loadRegistry(path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	if err := reg.Validate(templateTaskTypes...); err != nil {
		return err
	}
	fmt.Printf("Registry validation passed. Found %d activities.\n", len(reg.Activities))
	for _, activity := range reg.Activities {
		timeout, _ := activity.TimeoutDuration()
		fmt.Printf("  %-20s %-12s timeout=%s retries=%d\n", activity.TaskType, activity.Status, timeout, activity.Retries)
	}
	return nil
}

func describeCatalog(path string) error {
	catalog, err := defaults.LoadFile(path)
	if err != nil {
		return err
	}

	ctx := context.Background()
	for _, channel := range []string{models.ChannelEmail, models.ChannelSMS} {
		types, err := catalog.ListTemplateTypes(ctx, "", channel)
		if err != nil {
			return err
		}
		all, err := catalog.ListAllTemplates(ctx, "", channel)
		if err != nil {
			return err
		}
		fmt.Printf("%s: %d types, %d templates\n", channel, len(types), len(all))
		for _, t := range all {
			fmt.Printf("  %-24s %s\n", t.Type, t.Locale)
		}
	}
	return nil
}

func updateStatus(path, taskType, status string) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	st, err := registry.ParseStatus(status)
	if err != nil {
		return err
	}
	activity, ok := reg.Find(taskType)
	if !ok {
		return fmt.Errorf("no activity registered for task type %s", taskType)
	}
	activity.Status = st
	reg.LastUpdated = time.Now().Format(time.RFC3339)

	return saveRegistry(reg, path)
}

func saveRegistry(reg *registry.ActivityRegistry, path string) error {
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}

func help() {
	fmt.Print(`
Usage: registry-updater <command> [flags]

Commands:
  validate  Validate the activity registry against the template task types
  catalog   Validate a default template catalog and list its templates
  status    Update the implementation status of an activity

Examples:
  registry-updater validate
  registry-updater catalog -path internal/defaults/default_templates.json
  registry-updater status -taskType resolve-template -value verified
` + "\n")
}
