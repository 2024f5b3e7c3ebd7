package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Phoenix-070/Edutranscribe/internal/audio"
	"github.com/Phoenix-070/Edutranscribe/internal/models"
	"github.com/Phoenix-070/Edutranscribe/internal/pipeline"
	"github.com/Phoenix-070/Edutranscribe/internal/utils"
)

func newTranscribeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "transcribe <video-url>",
		Short: "Fetch the transcript of a video into the workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := ctx.ensurePipeline()
			if err != nil {
				return err
			}
			t, err := p.Transcribe(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return emit(cmd, map[string]string{
				"source_reference": t.SourceReference,
				"source":           t.Source,
				"transcript":       t.Text,
			}, []string{"Video", "Source", "Characters"},
				[][]string{{t.SourceReference, t.Source, strconv.Itoa(len([]rune(t.Text)))}},
				t.Text)
		},
	}
}

func newSummarizeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "summarize",
		Short: "Summarize the workspace transcript",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := ctx.ensurePipeline()
			if err != nil {
				return err
			}
			summary, err := p.Summarize(cmd.Context())
			if err != nil {
				return err
			}
			return emit(cmd, map[string]string{"summary": summary}, nil, nil, summary)
		},
	}
}

func newTranslateCommand(ctx *commandContext) *cobra.Command {
	var from, lang, method string
	var speak bool

	cmd := &cobra.Command{
		Use:   "translate",
		Short: "Translate the workspace summary or transcript",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			p, err := ctx.ensurePipeline()
			if err != nil {
				return err
			}
			if lang == "" {
				lang = cfg.Language
			}
			if method == "" {
				method = cfg.Method
			}
			tr, err := p.TranslateFrom(cmd.Context(), pipeline.Source(from), lang, models.TranslationMethod(method))
			if err != nil {
				return err
			}
			if err := emit(cmd, map[string]string{
				"translated_text": tr.Text,
				"target_language": tr.TargetLanguage,
				"method":          string(tr.Method),
			}, nil, nil, tr.Text); err != nil {
				return err
			}
			if !speak {
				return nil
			}
			return speakAndWait(cmd.Context(), cmd, p, pipeline.SourceTranslation, "")
		},
	}
	cmd.Flags().StringVar(&from, "from", string(pipeline.SourceSummary), "Text to translate: summary or transcript")
	cmd.Flags().StringVarP(&lang, "lang", "l", "", "Target language code (default from config)")
	cmd.Flags().StringVarP(&method, "method", "m", "", "Translation method: google or nllb (default from config)")
	cmd.Flags().BoolVar(&speak, "speak", false, "Read the translation aloud")
	return cmd
}

func newSpeakCommand(ctx *commandContext) *cobra.Command {
	var from, lang string

	cmd := &cobra.Command{
		Use:   "speak",
		Short: "Read the workspace summary or transcript aloud",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := ctx.ensurePipeline()
			if err != nil {
				return err
			}
			return speakAndWait(cmd.Context(), cmd, p, pipeline.Source(from), lang)
		},
	}
	cmd.Flags().StringVar(&from, "from", string(pipeline.SourceSummary), "Text to read: summary or transcript")
	cmd.Flags().StringVarP(&lang, "lang", "l", "", "Voice language code (default en)")
	return cmd
}

// speakAndWait blocks until playback ends. Cancelling ctx (Ctrl-C) stops it.
func speakAndWait(ctx context.Context, cmd *cobra.Command, p *pipeline.Pipeline, src pipeline.Source, lang string) error {
	if err := p.Speak(ctx, src, lang); err != nil {
		return err
	}
	outcome, err := p.WaitSpeaking(ctx)
	if err != nil {
		p.StopSpeaking()
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(cmd.ErrOrStderr(), "playback stopped")
			return nil
		}
		return err
	}
	switch outcome {
	case audio.OutcomeFailed:
		return utils.E(utils.CodeResourceAcquisition, "speak", "playback failed", nil)
	case audio.OutcomeInterrupted:
		fmt.Fprintln(cmd.ErrOrStderr(), "playback stopped")
	}
	return nil
}
