package main

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

func newHashCodeCmd() *cobra.Command {
	var cost int
	cmd := &cobra.Command{
		Use:   "hash-code <access-code>",
		Short: "Print the bcrypt hash to use as GROWPOINT_PRIVILEGED_CODE_HASH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code := strings.TrimSpace(args[0])
			if len(code) < 8 {
				return errors.New("access code must be at least 8 characters")
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(code), cost)
			if err != nil {
				return err
			}
			cmd.Println(string(hash))
			return nil
		},
	}
	cmd.Flags().IntVar(&cost, "cost", bcrypt.DefaultCost, "bcrypt cost")
	return cmd
}
