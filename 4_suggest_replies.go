package ytdash

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/azure"
	"github.com/openai/openai-go/v3/option"
	"github.com/spf13/cobra"
)

// ReplySuggestion is the structured answer requested from the model.
type ReplySuggestion struct {
	Reply string `json:"reply" jsonschema:"description=チャンネル運営者としてコメントに返す短い返信文"`
	Tone  string `json:"tone" jsonschema:"description=返信のトーン,enum=thanks,enum=answer,enum=apology,enum=neutral"`
}

// chatCompleter is the part of the OpenAI client used here.
type chatCompleter interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

var suggestLimit int

// SuggestRepliesCmd: drafts AI replies for stored comments that have none
var SuggestRepliesCmd = &cobra.Command{
	Use:   "suggest-replies",
	Short: "Draft reply suggestions for comments without one",
	RunE: func(cmd *cobra.Command, args []string) error {
		clientOpts, model, err := chatClientOptions(Config)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		store, err := openConfiguredStore(ctx)
		if err != nil {
			return err
		}
		defer func() {
			if err := store.Close(); err != nil {
				Logger.Error("failed to close database", "error", err)
			}
		}()

		client := openai.NewClient(clientOpts...)
		n, err := suggestReplies(ctx, &client.Chat.Completions, store, model, suggestLimit)
		if err != nil {
			return err
		}
		Logger.Info("reply suggestions complete", "replies", n)
		return nil
	},
}

func init() {
	SuggestRepliesCmd.Flags().IntVar(&suggestLimit, "limit", 20, "maximum number of comments to answer")
}

const chatMaxRetries = 5

// chatClientOptions picks the Azure deployment when an endpoint is configured
// and the OpenAI API otherwise. It returns the client options and the model
// name to send.
func chatClientOptions(cfg Settings) ([]option.RequestOption, string, error) {
	if cfg.Azure.Endpoint == "" {
		if err := requireSetting(cfg.OpenAIAPIKey, "OPENAI_API_KEY"); err != nil {
			return nil, "", err
		}
		return []option.RequestOption{
			option.WithAPIKey(cfg.OpenAIAPIKey),
			option.WithMaxRetries(chatMaxRetries),
		}, cfg.OpenAIModel, nil
	}

	if err := requireSetting(cfg.Azure.APIKey, "AZURE_OPENAI_API_KEY"); err != nil {
		return nil, "", err
	}
	if err := requireSetting(cfg.Azure.Deployment, "AZURE_OPENAI_DEPLOYMENT"); err != nil {
		return nil, "", err
	}
	if err := requireSetting(cfg.Azure.APIVersion, "AZURE_OPENAI_API_VERSION"); err != nil {
		return nil, "", err
	}
	// Azure routes by deployment, which the client reads from the model field.
	return []option.RequestOption{
		azure.WithEndpoint(cfg.Azure.Endpoint, cfg.Azure.APIVersion),
		azure.WithAPIKey(cfg.Azure.APIKey),
		option.WithMaxRetries(chatMaxRetries),
	}, cfg.Azure.Deployment, nil
}

// replySchema reflects ReplySuggestion into a JSON schema for structured output.
func replySchema() (any, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	schemaObj := reflector.Reflect(&ReplySuggestion{})
	if schemaObj.Type == "" {
		schemaObj.Type = "object"
	}

	schemaBytes, err := json.Marshal(schemaObj)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	var schema any
	if err := json.Unmarshal(schemaBytes, &schema); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema: %w", err)
	}
	return schema, nil
}

const replySystemPrompt = `あなたはYouTubeチャンネルの運営者です。視聴者のコメントに対して、丁寧で親しみやすい短い返信を書いてください。

ルール:
• 返信は2文以内
• コメントと同じ言語で書く
• 質問には簡潔に答える
• 批判には感謝と改善の姿勢を示す
• 宣伝やリンクは含めない`

// draftReply asks the model for a reply to one comment.
func draftReply(ctx context.Context, chat chatCompleter, model string, schema any, c Comment) (ReplySuggestion, error) {
	userContent := fmt.Sprintf("投稿者: %s\nいいね: %d\n返信数: %d\nコメント:\n%s", c.Author, c.LikeCount, c.ReplyCount, c.Text)

	chatCompletion, err := chat.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(replySystemPrompt),
			openai.UserMessage(userContent),
		},
		Model:       openai.ChatModel(model),
		MaxTokens:   openai.Int(300),
		Temperature: openai.Float(0.4),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        "reply_suggestion",
					Description: openai.String("A short reply to a YouTube comment"),
					Schema:      schema,
					Strict:      openai.Bool(true),
				},
			},
		},
	})
	if err != nil {
		return ReplySuggestion{}, fmt.Errorf("failed to call OpenAI API: %w", err)
	}
	if len(chatCompletion.Choices) == 0 || chatCompletion.Choices[0].Message.Content == "" {
		return ReplySuggestion{}, fmt.Errorf("no content in response")
	}

	var suggestion ReplySuggestion
	if err := json.Unmarshal([]byte(chatCompletion.Choices[0].Message.Content), &suggestion); err != nil {
		return ReplySuggestion{}, fmt.Errorf("failed to parse structured response: %w", err)
	}
	suggestion.Reply = strings.TrimSpace(suggestion.Reply)
	if suggestion.Reply == "" {
		return ReplySuggestion{}, fmt.Errorf("empty reply in response")
	}
	return suggestion, nil
}

// suggestReplies drafts and stores replies for up to limit comments. A failed
// comment is logged and skipped.
func suggestReplies(ctx context.Context, chat chatCompleter, store *Store, model string, limit int) (int, error) {
	schema, err := replySchema()
	if err != nil {
		return 0, err
	}
	comments, err := store.CommentsWithoutReply(ctx, limit)
	if err != nil {
		return 0, err
	}
	Logger.Info("drafting replies", "comments", len(comments), "model", model)

	stored := 0
	for _, c := range comments {
		suggestion, err := draftReply(ctx, chat, model, schema, c)
		if err != nil {
			Logger.Error("failed to draft reply", "comment_id", c.CommentID, "error", err)
			continue
		}
		if err := store.SetAIReply(ctx, c.CommentID, suggestion.Reply); err != nil {
			return stored, err
		}
		Logger.Debug("stored reply", "comment_id", c.CommentID, "tone", suggestion.Tone)
		stored++
	}
	return stored, nil
}
