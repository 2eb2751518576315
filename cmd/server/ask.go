package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"podcast-rag-go/internal/handler"
	"podcast-rag-go/internal/service"
	"podcast-rag-go/internal/session"
	"podcast-rag-go/pkg/llm"
)

func newAskCmd() *cobra.Command {
	var (
		filePath    string
		question    string
		showSources bool
	)
	cmd := &cobra.Command{
		Use:   "ask",
		Short: "Ingest a transcript and answer one question in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			if filePath == "" || question == "" {
				return errors.New("--file and --question are required")
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			a, err := buildApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			f, err := os.Open(filePath)
			if err != nil {
				return err
			}
			defer f.Close()

			sess := session.New("cli")
			defer sess.Reset(context.Background())
			if _, err := a.processor.Ingest(ctx, sess, f.Name(), f); err != nil {
				return errors.New(handler.ErrorMessage(err))
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, sess.Status())

			res, err := a.chat.Ask(ctx, sess, question, llm.ChunkWriterFunc(func(text string) error {
				_, err := fmt.Fprint(out, text)
				return err
			}))
			if err != nil {
				return errors.New(handler.ErrorMessage(err))
			}
			fmt.Fprintln(out)
			if showSources {
				for _, src := range res.Sources {
					fmt.Fprintf(out, "\n[%.3f] %s\n", src.Score, service.Preview(src.Text))
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&filePath, "file", "", "transcript file (.txt or .pdf)")
	cmd.Flags().StringVar(&question, "question", "", "question to ask")
	cmd.Flags().BoolVar(&showSources, "sources", false, "print source previews")
	return cmd
}
