package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Phoenix-070/Edutranscribe/internal/utils"
	"github.com/Phoenix-070/Edutranscribe/internal/workspace"
)

func newWorkspaceCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workspace",
		Short: "Inspect or clear the session workspace",
	}
	cmd.AddCommand(newWorkspaceShowCommand(ctx))
	cmd.AddCommand(newWorkspaceClearCommand(ctx))
	return cmd
}

func parseKey(arg string) (workspace.Key, error) {
	k := workspace.Key(arg)
	if !k.Valid() {
		return "", utils.E(utils.CodeInvalidArgument, "workspace", fmt.Sprintf("unknown key %q (want one of %v)", arg, workspace.Keys), nil)
	}
	return k, nil
}

func newWorkspaceShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show [key]",
		Short: "Show every artifact, or the full value of one key",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := ctx.ensurePipeline()
			if err != nil {
				return err
			}
			st, err := p.Store().Snapshot(cmd.Context())
			if err != nil {
				return err
			}

			if len(args) == 1 {
				k, err := parseKey(args[0])
				if err != nil {
					return err
				}
				v, ok := st.Value(k)
				if !ok {
					return utils.E(utils.CodeNotFound, "workspace", string(k)+" is not set", nil)
				}
				return emit(cmd, map[string]string{string(k): v}, nil, nil, v)
			}

			rows := make([][]string, 0, len(workspace.Keys))
			for _, k := range workspace.Keys {
				v, ok := st.Value(k)
				if !ok {
					rows = append(rows, []string{string(k), "-"})
					continue
				}
				rows = append(rows, []string{string(k), preview(v, 60)})
			}
			return emit(cmd, st, []string{"Key", "Value"}, rows, "")
		},
	}
}

func newWorkspaceClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear [key]",
		Short: "Clear one artifact, or the whole workspace",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := ctx.ensurePipeline()
			if err != nil {
				return err
			}
			if len(args) == 0 {
				if err := p.Reset(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "workspace %q cleared\n", ctx.session())
				return nil
			}
			k, err := parseKey(args[0])
			if err != nil {
				return err
			}
			return p.Store().Clear(cmd.Context(), k)
		},
	}
}
