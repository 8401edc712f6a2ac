package db

import (
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
)

// RunMigrateCommand handles the 'migrate' subcommand.
func RunMigrateCommand(args []string, dbPath string) {
	if len(args) < 1 {
		PrintMigrateHelp()
		os.Exit(1)
	}

	action := args[0]
	if action == "help" {
		PrintMigrateHelp()
		return
	}

	migrationsFS, err := getMigrationsFS()
	if err != nil {
		log.Fatalf("Failed to get migrations filesystem: %v", err)
	}

	// Open without running migrations; the subcommand manages the schema.
	database, err := OpenDB(dbPath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	switch action {
	case "up":
		log.Printf("Running migrations...")
		if err := database.MigrateUp(migrationsFS); err != nil {
			log.Fatalf("Migration up failed: %v", err)
		}
		printVersion(database, migrationsFS)

	case "down":
		log.Printf("Rolling back one migration...")
		if err := database.MigrateDown(migrationsFS); err != nil {
			log.Fatalf("Migration down failed: %v", err)
		}
		printVersion(database, migrationsFS)

	case "status":
		st, err := database.GetMigrationStatus(migrationsFS)
		if err != nil {
			log.Fatalf("Failed to get migration status: %v", err)
		}
		fmt.Print(FormatMigrationStatus(st))

	case "version", "force":
		if len(args) < 2 {
			log.Fatalf("Usage: stepd migrate %s <version_number>", action)
		}
		v, err := strconv.Atoi(args[1])
		if err != nil || v < 0 {
			log.Fatalf("Invalid version %q", args[1])
		}
		if action == "force" {
			err = database.MigrateForce(migrationsFS, v)
		} else {
			err = database.MigrateTo(migrationsFS, uint(v))
		}
		if err != nil {
			log.Fatalf("Migrate %s failed: %v", action, err)
		}
		printVersion(database, migrationsFS)

	default:
		fmt.Printf("Unknown migrate action: %s\n\n", action)
		PrintMigrateHelp()
		os.Exit(1)
	}
}

func printVersion(database *DB, fsys fs.FS) {
	version, dirty, err := database.MigrateVersion(fsys)
	if err != nil {
		log.Printf("Failed to read version: %v", err)
		return
	}
	log.Printf("Current version: %d (dirty: %v)", version, dirty)
}

// FormatMigrationStatus renders st for the terminal.
func FormatMigrationStatus(st MigrationStatus) string {
	out := "=== Migration Status ===\n"
	out += fmt.Sprintf("Current version: %d\n", st.CurrentVersion)
	out += fmt.Sprintf("Latest version:  %d\n", st.LatestVersion)
	out += fmt.Sprintf("Dirty: %v\n", st.Dirty)
	switch {
	case st.Dirty:
		out += "\nWARNING: a migration failed mid-execution. Inspect the database, then run\n" +
			"'stepd migrate force <version>' to mark the last good version.\n"
	case st.Pending > 0:
		out += fmt.Sprintf("\n%d migration(s) pending. Run 'stepd migrate up'.\n", st.Pending)
	default:
		out += "\nSchema is up to date.\n"
	}
	return out
}

// PrintMigrateHelp prints usage for the migrate subcommand.
func PrintMigrateHelp() {
	fmt.Println(`Usage: stepd migrate <action> [args]

Actions:
  up                 Apply all pending migrations
  down               Roll back the most recent migration
  status             Show current and latest schema versions
  version <N>        Migrate up or down to version N
  force <N>          Mark the database as version N without running SQL
  help               Show this help

Use -db to select the database file.`)
}
