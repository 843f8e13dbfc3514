package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	listUser string
	listFrom string
	listTo   string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored usage data",
	Long:  `Displays stored monthly usage for a user, or the known users when --user is omitted.`,
	RunE:  runList,
}

func init() {
	listCmd.Flags().StringVar(&listUser, "user", "", "User to list")
	listCmd.Flags().StringVar(&listFrom, "from", "", "First month to show (YYYY-MM)")
	listCmd.Flags().StringVar(&listTo, "to", "", "Last month to show (YYYY-MM)")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	window, err := parseWindow(listFrom, listTo)
	if err != nil {
		return err
	}

	db, err := openDB(cfg)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if listUser == "" {
		users, err := db.ListUsers(cmd.Context())
		if err != nil {
			return fmt.Errorf("listing users: %w", err)
		}
		if len(users) == 0 {
			fmt.Println("No data found")
			return nil
		}
		for _, u := range users {
			fmt.Println(u)
		}
		return nil
	}

	data, err := db.ListUsage(cmd.Context(), listUser, window)
	if err != nil {
		return fmt.Errorf("listing data for %s: %w", listUser, err)
	}
	if len(data) == 0 {
		fmt.Printf("No data found for %s\n", listUser)
		return nil
	}

	fmt.Printf("\n%s Usage Data:\n", listUser)
	fmt.Println("------------------------------------------------------")
	fmt.Printf("%-8s  %10s  %-8s  %s\n", "Month", "kWh", "Source", "Updated")
	fmt.Println("------------------------------------------------------")

	var total float64
	for _, record := range data {
		fmt.Printf("%-8s  %10s  %-8s  %s\n",
			record.Period, humanize.FormatFloat("#,###.##", record.KWh), record.Source, humanize.Time(record.UpdatedAt))
		total += record.KWh
	}

	fmt.Println("------------------------------------------------------")
	fmt.Printf("Total: %s kWh (%d months)\n", humanize.FormatFloat("#,###.##", total), len(data))
	return nil
}
