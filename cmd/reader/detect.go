package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/smartreader/reader/internal/translate"
)

// detectCmd guesses the language of a text sample
var detectCmd = &cobra.Command{
	Use:   "detect [text]",
	Short: "Detect the language of a text sample",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		tag, ok := translate.DetectLanguage(text)
		if !ok {
			return fmt.Errorf("could not detect language")
		}
		fmt.Println(tag.String())
		return nil
	},
}
