package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newPapersCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "papers",
		Short: "Upload and browse research papers",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "upload <file.pdf>",
		Short: "Upload a PDF for question answering",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := ctx.ensureConfig(); err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			up, err := ctx.client.UploadDocument(cmd.Context(), filepath.Base(args[0]), f)
			if err != nil {
				return err
			}
			return emit(cmd, map[string]string{
				"message":      up.Message,
				"pdf_id":       up.DocumentID,
				"preview_text": up.Preview,
			}, []string{"ID", "Message"}, [][]string{{up.DocumentID, up.Message}}, preview(up.Preview, 400))
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List uploaded papers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := ctx.ensureConfig(); err != nil {
				return err
			}
			docs, err := ctx.client.ListDocuments(cmd.Context())
			if err != nil {
				return err
			}
			if len(docs) == 0 && isTerminal(cmd.OutOrStdout()) {
				fmt.Fprintln(cmd.OutOrStdout(), "No papers uploaded")
				return nil
			}
			rows := make([][]string, 0, len(docs))
			for _, d := range docs {
				rows = append(rows, []string{d.ID, d.Filename})
			}
			return emit(cmd, docs, []string{"ID", "Filename"}, rows, "")
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "summary <pdf-id>",
		Short: "Summarize an uploaded paper",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := ctx.ensureConfig(); err != nil {
				return err
			}
			summary, err := ctx.client.DocumentSummary(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return emit(cmd, map[string]string{"summary": summary}, nil, nil, summary)
		},
	})
	return cmd
}

func newAskCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <pdf-id> <question...>",
		Short: "Ask a question about an uploaded paper",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := ctx.chatManager()
			if err != nil {
				return err
			}
			docID, question := args[0], strings.Join(args[1:], " ")
			if _, err := m.LoadHistory(cmd.Context(), docID); err != nil {
				ctx.log.WithError(err).Debug("history unavailable")
			}
			answer, err := m.Ask(cmd.Context(), docID, question)
			if err != nil {
				return err
			}
			return emit(cmd, map[string]any{
				"answer":  answer,
				"history": m.History(docID),
			}, nil, nil, answer)
		},
	}
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "history <pdf-id>",
		Short: "Show the conversation about a paper",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := ctx.chatManager()
			if err != nil {
				return err
			}
			history, err := m.LoadHistory(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(history))
			for i, ex := range history {
				rows = append(rows, []string{strconv.Itoa(i + 1), preview(ex.Question, 60), preview(ex.Answer, 80)})
			}
			if len(rows) == 0 && isTerminal(cmd.OutOrStdout()) {
				fmt.Fprintln(cmd.OutOrStdout(), "No questions asked yet")
				return nil
			}
			return emit(cmd, map[string]any{"history": history}, []string{"#", "Question", "Answer"}, rows, "")
		},
	}
}
