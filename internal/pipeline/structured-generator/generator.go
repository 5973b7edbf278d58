// internal/pipeline/structured-generator/generator.go
package structuredgenerator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"compair/internal/common/logger"
	"compair/internal/common/metrics"
	"compair/internal/models"
	promptcomposer "compair/internal/pipeline/prompt-composer"

	"github.com/xeipuuv/gojsonschema"
)

// ErrSchemaViolation is terminal: the output never validated within the retry bound.
var ErrSchemaViolation = errors.New("GENERATION_VALIDATION_FAILED")

// Generator turns a prompt into a validated Outcome. It never returns a partial result.
type Generator struct {
	config    *Config
	completer Completer
	schema    *gojsonschema.Schema
	logger    logger.Logger
}

func New(cfg *Config, completer Completer, log logger.Logger) (*Generator, error) {
	if cfg == nil {
		cfg = LoadConfig(nil)
	}
	schema, err := compileSchema()
	if err != nil {
		return nil, err
	}
	return &Generator{
		config:    cfg,
		completer: completer,
		schema:    schema,
		logger:    logger.ForComponent(log, "structured-generator"),
	}, nil
}

// Generate calls the model and validates its output against exp, retrying with a
// corrective instruction on each violation. Backend errors are not retried.
func (g *Generator) Generate(ctx context.Context, prompt promptcomposer.Prompt, exp Expectations) (models.Outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, g.config.Timeout)
	defer cancel()

	attempts := g.config.MaxRetries + 1
	instructions := prompt.Instructions
	var violations []string

	for attempt := 1; attempt <= attempts; attempt++ {
		raw, err := g.completer.Complete(ctx, CompletionRequest{
			Instructions: instructions,
			Content:      prompt.Content,
			JSON:         true,
		})
		if err != nil {
			metrics.GenerationAttempts.WithLabelValues("error").Inc()
			g.logger.Error("Generative backend call failed", map[string]interface{}{
				"attempt": attempt,
				"error":   err.Error(),
			})
			return nil, err
		}

		outcome, v := g.parse(raw, exp)
		if len(v) == 0 {
			metrics.GenerationAttempts.WithLabelValues("valid").Inc()
			g.logger.Info("Generation complete", map[string]interface{}{
				"attempt":       attempt,
				"notComparable": isMessage(outcome),
			})
			return outcome, nil
		}

		violations = v
		metrics.GenerationAttempts.WithLabelValues("invalid").Inc()
		g.logger.Warn("Model output rejected", map[string]interface{}{
			"attempt":    attempt,
			"violations": violations,
			"rawLength":  len(raw),
		})
		instructions = correctiveInstructions(prompt.Instructions, violations)
	}

	return nil, fmt.Errorf("%w: after %d attempts: %s", ErrSchemaViolation, attempts, strings.Join(violations, "; "))
}

// Answer returns a plain-text follow-up answer. An empty answer counts as a violation.
func (g *Generator) Answer(ctx context.Context, prompt promptcomposer.Prompt) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.config.Timeout)
	defer cancel()

	attempts := g.config.MaxRetries + 1
	for attempt := 1; attempt <= attempts; attempt++ {
		raw, err := g.completer.Complete(ctx, CompletionRequest{
			Instructions: prompt.Instructions,
			Content:      prompt.Content,
		})
		if err != nil {
			metrics.GenerationAttempts.WithLabelValues("error").Inc()
			return "", err
		}
		if answer := strings.TrimSpace(raw); answer != "" {
			metrics.GenerationAttempts.WithLabelValues("valid").Inc()
			return answer, nil
		}
		metrics.GenerationAttempts.WithLabelValues("invalid").Inc()
		g.logger.Warn("Empty follow-up answer", map[string]interface{}{"attempt": attempt})
	}
	return "", fmt.Errorf("%w: empty answer after %d attempts", ErrSchemaViolation, attempts)
}

func (g *Generator) parse(raw string, exp Expectations) (models.Outcome, []string) {
	doc, ok := extractJSON(raw)
	if !ok {
		return nil, []string{"response is not a JSON object"}
	}

	schemaViolations, err := checkSchema(g.schema, []byte(doc))
	if err != nil {
		return nil, []string{fmt.Sprintf("response is not valid JSON: %v", err)}
	}
	if len(schemaViolations) > 0 {
		return nil, schemaViolations
	}

	var out rawOutput
	if err := json.Unmarshal([]byte(doc), &out); err != nil {
		return nil, []string{fmt.Sprintf("response could not be decoded: %v", err)}
	}

	outcome, violations, stripped := validate(out, exp)
	if stripped != "" {
		g.logger.Warn("Removed personalized winner from result without preferences", map[string]interface{}{
			"winner": stripped,
		})
	}
	return outcome, violations
}

// validate applies the cross-field rules. stripped is the winner removed because no
// preferences were given.
func validate(out rawOutput, exp Expectations) (outcome models.Outcome, violations []string, stripped string) {
	message := text(out.Message)
	hasFull := text(out.Introduction) != "" || len(out.Table) > 0 || len(out.Pros) > 0 ||
		len(out.Cons) > 0 || text(out.Recommendation) != "" || text(out.PersonalizedWinner) != ""

	if message != "" {
		if hasFull {
			return nil, []string{"\"message\" must not be combined with comparison fields"}, ""
		}
		return models.NotComparable{Message: message}, nil, ""
	}

	if text(out.Introduction) == "" {
		violations = append(violations, "\"introduction\" is required")
	}
	if len(out.Table) == 0 {
		violations = append(violations, "\"table\" must contain at least one row")
	}
	if len(nonBlank(out.Pros)) == 0 {
		violations = append(violations, "\"pros\" must contain at least one entry")
	}
	if len(nonBlank(out.Cons)) == 0 {
		violations = append(violations, "\"cons\" must contain at least one entry")
	}
	if text(out.Recommendation) == "" {
		violations = append(violations, "\"recommendation\" is required")
	}

	table := make([]models.Row, 0, len(out.Table))
	for i, row := range out.Table {
		converted := make(models.Row, len(row))
		for k, v := range row {
			converted[k] = stringify(v)
		}
		if strings.TrimSpace(converted["feature"]) == "" {
			violations = append(violations, fmt.Sprintf("table row %d is missing \"feature\"", i))
		}
		table = append(table, converted)
	}

	winner := text(out.PersonalizedWinner)
	reason := text(out.WinnerReason)
	switch {
	case !exp.RequireWinner:
		if winner != "" {
			stripped = winner
		}
		winner, reason = "", ""
	case winner == "":
		violations = append(violations, "\"personalized_winner\" is required when preferences are given")
	default:
		matched, ok := models.MatchItem(exp.Items, winner)
		if !ok {
			violations = append(violations, fmt.Sprintf("\"personalized_winner\" %q is not one of: %s", winner, strings.Join(exp.Items, ", ")))
		} else {
			winner = matched
		}
		if reason == "" {
			violations = append(violations, "\"winner_reason\" is required with a personalized winner")
		}
	}

	if len(violations) > 0 {
		return nil, violations, stripped
	}
	return models.Comparable{
		Introduction:       text(out.Introduction),
		Table:              table,
		Pros:               nonBlank(out.Pros),
		Cons:               nonBlank(out.Cons),
		Recommendation:     text(out.Recommendation),
		PersonalizedWinner: winner,
		WinnerReason:       reason,
	}, nil, stripped
}

// extractJSON strips code fences and any prose around the outermost object.
func extractJSON(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

func correctiveInstructions(base string, violations []string) string {
	var parts []string
	parts = append(parts, base)
	parts = append(parts, "")
	parts = append(parts, "IMPORTANT: Your previous response was rejected for these reasons:")
	for _, v := range violations {
		parts = append(parts, "- "+v)
	}
	parts = append(parts, "Return a corrected JSON object that follows the required format exactly.")
	return strings.Join(parts, "\n")
}

func text(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

func nonBlank(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

func isMessage(o models.Outcome) bool {
	_, ok := o.(models.NotComparable)
	return ok
}
