package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"multichat/internal/domain/llm"
)

var chatsCmd = &cobra.Command{
	Use:   "chats",
	Short: "Manage chats",
}

var chatsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List chats, most recently active first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		chats, err := newClientFromConfig().ListChats()
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), chats, func() string { return chatTable(chats) })
	},
}

var chatsCreateCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create a chat",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		created, err := newClientFromConfig().CreateChat(strings.Join(args, " "))
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), created, func() string { return chatTable([]Chat{*created}) })
	},
}

var chatsShowCmd = &cobra.Command{
	Use:   "show <chat-id>",
	Short: "Show a chat and its messages",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		detail, err := newClientFromConfig().GetChat(args[0])
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), detail, func() string {
			return chatTable([]Chat{detail.Chat}) + "\n\n" + messageTable(detail.Messages)
		})
	},
}

var chatsRenameCmd = &cobra.Command{
	Use:   "rename <chat-id> <title>",
	Short: "Rename a chat",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		updated, err := newClientFromConfig().RenameChat(args[0], strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), updated, func() string { return chatTable([]Chat{*updated}) })
	},
}

var chatsDeleteCmd = &cobra.Command{
	Use:   "delete <chat-id>",
	Short: "Delete a chat and all of its messages",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newClientFromConfig().DeleteChat(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
		return nil
	},
}

var messagesCmd = &cobra.Command{
	Use:   "messages",
	Short: "Manage the messages of a chat",
}

var messagesListCmd = &cobra.Command{
	Use:   "list <chat-id>",
	Short: "List messages in conversation order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		msgs, err := newClientFromConfig().ListMessages(args[0])
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), msgs, func() string { return messageTable(msgs) })
	},
}

var messagesAddCmd = &cobra.Command{
	Use:   "add <chat-id> <content>",
	Short: "Append a message to a chat",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		role, _ := cmd.Flags().GetString("role")
		msg, err := newClientFromConfig().AddMessage(args[0], role, strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), msg, func() string { return messageTable([]Message{*msg}) })
	},
}

var sendCmd = &cobra.Command{
	Use:   "send <chat-id> [prompt]",
	Short: "Send the chat history plus an optional prompt to a model",
	Long: `send loads the chat's stored messages, appends the prompt as a user turn
and asks the server to generate a reply with the selected model.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		model, _ := cmd.Flags().GetString("model")
		system, _ := cmd.Flags().GetString("system")
		client := newClientFromConfig()

		msgs, err := client.ListMessages(args[0])
		if err != nil {
			return err
		}
		history := buildHistory(system, msgs, strings.Join(args[1:], " "))
		reply, err := client.Send(args[0], model, history)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), reply, func() string { return reply.Content })
	},
}

func init() {
	chatsCmd.AddCommand(chatsListCmd, chatsCreateCmd, chatsShowCmd, chatsRenameCmd, chatsDeleteCmd)
	messagesCmd.AddCommand(messagesListCmd, messagesAddCmd)

	messagesAddCmd.Flags().StringP("role", "r", "user", "Message role (user, assistant, system)")
	sendCmd.Flags().StringP("model", "m", string(llm.ModelGPT4), "Model ("+modelNames()+")")
	sendCmd.Flags().String("system", "", "System prompt placed before the history")
}

// buildHistory orders an optional system prompt, the stored messages and the new prompt.
func buildHistory(system string, stored []Message, prompt string) []Turn {
	history := make([]Turn, 0, len(stored)+2)
	if strings.TrimSpace(system) != "" {
		history = append(history, Turn{Role: "system", Content: system})
	}
	for _, m := range stored {
		history = append(history, Turn{Role: m.Role, Content: m.Content})
	}
	if strings.TrimSpace(prompt) != "" {
		history = append(history, Turn{Role: "user", Content: prompt})
	}
	return history
}

func render(out io.Writer, value any, text func() string) error {
	if viper.GetBool("json") {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(value)
	}
	_, err := fmt.Fprintln(out, text())
	return err
}

func chatTable(chats []Chat) string {
	table := uitable.New()
	table.MaxColWidth = 60
	table.AddRow("ID", "TITLE", "UPDATED")
	for _, c := range chats {
		table.AddRow(c.ID, c.Title, c.UpdatedAt.Local().Format(time.DateTime))
	}
	return table.String()
}

func messageTable(msgs []Message) string {
	table := uitable.New()
	table.MaxColWidth = 80
	table.Wrap = true
	table.AddRow("ID", "ROLE", "CONTENT")
	for _, m := range msgs {
		table.AddRow(m.ID, m.Role, m.Content)
	}
	return table.String()
}

func modelNames() string {
	names := make([]string, 0, len(llm.SupportedModels()))
	for _, model := range llm.SupportedModels() {
		names = append(names, string(model))
	}
	return strings.Join(names, ", ")
}
