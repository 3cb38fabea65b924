package main

import (
	"errors"
	"fmt"
	"os"

	"datacuration/internal/service"

	"github.com/spf13/cobra"
)

func newCreateCmd(opts *options) *cobra.Command {
	var req service.CreateDataSourceRequest
	var primary, secondary, tertiary string
	var metadata map[string]string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a draft data source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			operator, err := opts.operator()
			if err != nil {
				return err
			}
			req.CreatedBy = operator
			req.PrimaryCategory = changedString(cmd, "primary-category", primary)
			req.SecondaryCategory = changedString(cmd, "secondary-category", secondary)
			req.TertiaryCategory = changedString(cmd, "tertiary-category", tertiary)
			if len(metadata) > 0 {
				req.Metadata = make(map[string]interface{}, len(metadata))
				for k, v := range metadata {
					req.Metadata[k] = v
				}
			}

			ds, err := opts.client().Create(cmd.Context(), &req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), ds)
		},
	}
	cmd.Flags().StringVar(&req.Title, "title", "", "title (1-200 characters)")
	cmd.Flags().StringVar(&req.Description, "description", "", "description")
	cmd.Flags().StringSliceVar(&req.Tags, "tag", nil, "tag, repeatable")
	cmd.Flags().StringSliceVar(&req.CustomTags, "custom-tag", nil, "custom tag, repeatable")
	cmd.Flags().StringVar(&primary, "primary-category", "", "primary category")
	cmd.Flags().StringVar(&secondary, "secondary-category", "", "secondary category")
	cmd.Flags().StringVar(&tertiary, "tertiary-category", "", "tertiary category")
	cmd.Flags().StringToStringVar(&metadata, "metadata", nil, "metadata key=value pairs")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newGetCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a data source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := opts.client().Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), ds)
		},
	}
}

func newListCmd(opts *options) *cobra.Command {
	var req service.ListDataSourcesRequest
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List data sources, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("limit") {
				req.Limit = &limit
			}
			resp, err := opts.client().List(cmd.Context(), &req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().StringVar(&req.CreatedBy, "created-by", "", "filter by creator")
	cmd.Flags().StringVar(&req.Status, "status", "", "filter by status (draft/confirmed)")
	cmd.Flags().StringVar(&req.SourceType, "source-type", "", "filter by source type (scheduled/instant/mixed)")
	cmd.Flags().StringVar(&req.StartDate, "start-date", "", "created at or after (RFC3339)")
	cmd.Flags().StringVar(&req.EndDate, "end-date", "", "created at or before (RFC3339)")
	cmd.Flags().StringVar(&req.PrimaryCategory, "primary-category", "", "filter by primary category")
	cmd.Flags().StringVar(&req.SecondaryCategory, "secondary-category", "", "filter by secondary category")
	cmd.Flags().StringVar(&req.TertiaryCategory, "tertiary-category", "", "filter by tertiary category")
	cmd.Flags().IntVar(&limit, "limit", 50, "page size (1-100)")
	cmd.Flags().IntVar(&req.Skip, "skip", 0, "number of items to skip")
	return cmd
}

func newUpdateInfoCmd(opts *options) *cobra.Command {
	var title, description, primary, secondary, tertiary string
	var tags, customTags []string

	cmd := &cobra.Command{
		Use:   "update-info <id>",
		Short: "Update title, description, tags or categories of a draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			operator, err := opts.operator()
			if err != nil {
				return err
			}
			req := service.UpdateInfoRequest{
				Title:             changedString(cmd, "title", title),
				Description:       changedString(cmd, "description", description),
				PrimaryCategory:   changedString(cmd, "primary-category", primary),
				SecondaryCategory: changedString(cmd, "secondary-category", secondary),
				TertiaryCategory:  changedString(cmd, "tertiary-category", tertiary),
				UpdatedBy:         operator,
			}
			if cmd.Flags().Changed("tag") {
				req.Tags = nonNil(tags)
			}
			if cmd.Flags().Changed("custom-tag") {
				req.CustomTags = nonNil(customTags)
			}

			msg, err := opts.client().UpdateInfo(cmd.Context(), args[0], &req)
			if err != nil {
				return err
			}
			return printMessage(cmd.OutOrStdout(), msg)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "replace tags, repeatable; --tag= clears")
	cmd.Flags().StringSliceVar(&customTags, "custom-tag", nil, "replace custom tags, repeatable")
	cmd.Flags().StringVar(&primary, "primary-category", "", "primary category, empty clears")
	cmd.Flags().StringVar(&secondary, "secondary-category", "", "secondary category, empty clears")
	cmd.Flags().StringVar(&tertiary, "tertiary-category", "", "tertiary category, empty clears")
	return cmd
}

func newUpdateContentCmd(opts *options) *cobra.Command {
	var content, file string

	cmd := &cobra.Command{
		Use:   "update-content <id>",
		Short: "Replace the edited Markdown content of a draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			operator, err := opts.operator()
			if err != nil {
				return err
			}
			if file != "" {
				raw, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("read content file: %w", err)
				}
				content = string(raw)
			} else if !cmd.Flags().Changed("content") {
				return errors.New("either --content or --file is required")
			}

			msg, err := opts.client().UpdateContent(cmd.Context(), args[0], &service.UpdateContentRequest{
				EditedContent: content,
				UpdatedBy:     operator,
			})
			if err != nil {
				return err
			}
			return printMessage(cmd.OutOrStdout(), msg)
		},
	}
	cmd.Flags().StringVar(&content, "content", "", "Markdown content")
	cmd.Flags().StringVar(&file, "file", "", "read Markdown content from file")
	return cmd
}

func newDeleteCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a data source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			operator, err := opts.operator()
			if err != nil {
				return err
			}
			msg, err := opts.client().Delete(cmd.Context(), args[0], operator)
			if err != nil {
				return err
			}
			return printMessage(cmd.OutOrStdout(), msg)
		},
	}
}

func newAddCmd(opts *options) *cobra.Command {
	var dataType string

	cmd := &cobra.Command{
		Use:   "add <id> <data-id>",
		Short: "Attach a raw data record to a draft",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			operator, err := opts.operator()
			if err != nil {
				return err
			}
			msg, err := opts.client().AddRawData(cmd.Context(), args[0], &service.AddRawDataRequest{
				DataID:   args[1],
				DataType: dataType,
				AddedBy:  operator,
			})
			if err != nil {
				return err
			}
			return printMessage(cmd.OutOrStdout(), msg)
		},
	}
	cmd.Flags().StringVar(&dataType, "type", "scheduled", "raw data type (scheduled/instant)")
	return cmd
}

func newRemoveCmd(opts *options) *cobra.Command {
	var dataType string

	cmd := &cobra.Command{
		Use:   "remove <id> <data-id>",
		Short: "Detach a raw data record from a draft",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			operator, err := opts.operator()
			if err != nil {
				return err
			}
			msg, err := opts.client().RemoveRawData(cmd.Context(), args[0], &service.RemoveRawDataRequest{
				DataID:    args[1],
				DataType:  dataType,
				RemovedBy: operator,
			})
			if err != nil {
				return err
			}
			return printMessage(cmd.OutOrStdout(), msg)
		},
	}
	cmd.Flags().StringVar(&dataType, "type", "scheduled", "raw data type (scheduled/instant)")
	return cmd
}

func newConfirmCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "confirm <id>",
		Short: "Confirm a draft, locking its raw data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			operator, err := opts.operator()
			if err != nil {
				return err
			}
			msg, err := opts.client().Confirm(cmd.Context(), args[0], &service.ConfirmRequest{ConfirmedBy: operator})
			if err != nil {
				return err
			}
			return printMessage(cmd.OutOrStdout(), msg)
		},
	}
}

func newRevertCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "revert <id>",
		Short: "Revert a confirmed data source to draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			operator, err := opts.operator()
			if err != nil {
				return err
			}
			msg, err := opts.client().Revert(cmd.Context(), args[0], &service.RevertRequest{RevertedBy: operator})
			if err != nil {
				return err
			}
			return printMessage(cmd.OutOrStdout(), msg)
		},
	}
}

func newBatchCmd(opts *options) *cobra.Command {
	batch := &cobra.Command{Use: "batch", Short: "Batch archive or delete raw data"}

	newOp := func(use, short string, archive bool) *cobra.Command {
		var dataSourceID, dataType string

		cmd := &cobra.Command{
			Use:   use + " <data-id>...",
			Short: short,
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				operator, err := opts.operator()
				if err != nil {
					return err
				}
				req := &service.BatchOperationRequest{
					DataSourceID: dataSourceID,
					DataIDs:      args,
					DataType:     dataType,
					Operator:     operator,
				}

				c := opts.client()
				var resp *service.BatchResultResponse
				if archive {
					resp, err = c.BatchArchive(cmd.Context(), req)
				} else {
					resp, err = c.BatchDelete(cmd.Context(), req)
				}
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), resp)
			},
		}
		cmd.Flags().StringVar(&dataSourceID, "data-source", "", "scope the batch to one data source")
		cmd.Flags().StringVar(&dataType, "type", "scheduled", "raw data type (scheduled/instant)")
		return cmd
	}

	batch.AddCommand(newOp("archive", "Archive raw data records", true))
	batch.AddCommand(newOp("delete", "Delete raw data records", false))
	return batch
}

// changedString 仅在命令行显式指定时返回值
func changedString(cmd *cobra.Command, name, value string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &value
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
