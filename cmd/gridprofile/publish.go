package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jgoulah/gridprofile/internal/publisher"
)

var publishOpts analyzeFlags

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish a user's usage profile to MQTT and/or Home Assistant",
	Long: `Analyzes a user's usage history (using the profile cache) and publishes the
result to every destination enabled in config: a retained JSON message on MQTT and
a Home Assistant sensor whose state is the profile classification.`,
	RunE: runPublish,
}

func init() {
	publishOpts.register(publishCmd)
	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, args []string) error {
	fmt.Printf("=== Publish started at %s ===\n", time.Now().Format("2006-01-02 15:04:05 MST"))

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	pub, err := publisher.New(cfg)
	if err != nil {
		return fmt.Errorf("creating publisher: %w", err)
	}
	defer pub.Close()

	profile, err := computeProfile(cmd.Context(), publishOpts)
	if err != nil {
		return err
	}

	if err := pub.Publish(cmd.Context(), profile); err != nil {
		return fmt.Errorf("publishing profile: %w", err)
	}

	if cfg.MQTT.Enabled {
		fmt.Printf("✓ Published %s profile to %s\n", profile.ProfileType, pub.ProfileTopic(profile.UserID))
	}
	if cfg.HomeAssistant.Enabled {
		fmt.Printf("✓ Updated %s to %s\n", cfg.HomeAssistant.EntityID, profile.ProfileType)
	}
	return nil
}
