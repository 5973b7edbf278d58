// internal/pipeline/prompt-composer/rules.go
package promptcomposer

import (
	"fmt"
	"strings"

	"compair/internal/models"
)

const roleContract = `You are a smart AI comparison assistant.

Your task is to provide a detailed comparison between the items the user provides.`

const groundedRules = `GROUNDING RULES:
You will receive REAL-TIME SEARCH RESULTS for the items.
- Use the search results as your PRIMARY and MOST RELIABLE source of information
- ONLY use facts that are present in the search results
- If specific information is not in the search results, explicitly state "Information not found in search results" rather than guessing
- Do NOT make up specifications, prices, features, or any factual data
- Search results take precedence over your training data`

const ungroundedRules = `GROUNDING RULES:
No search results are available for this request.
- Do NOT make up specifications, prices, features, or any factual data
- Only state facts you are certain of; otherwise write "Information not available"
- Prefer qualitative statements over precise figures you cannot verify`

const outputFormat = `OUTPUT FORMAT:

Return ONLY a JSON object (no markdown, no code fences) with these fields:

1. "introduction": A 4 to 5 sentence introduction to the comparison. Use the actual item names.

2. "table": An array of feature comparisons. Each entry is an object with:
   - "feature": The feature name (e.g., "Price", "Display", "Battery")
   - One key for EACH item using its exact name, with a short display string as value
   Example:
   [
     {"feature": "Price", "iPhone 15": "$799", "Samsung S24": "$799"},
     {"feature": "Display", "iPhone 15": "6.1 inch OLED", "Samsung S24": "6.2 inch AMOLED"}
   ]

3. "pros": An array of advantages. Format each as "[Item Name]: [advantage]"

4. "cons": An array of disadvantages. Format each as "[Item Name]: [disadvantage]"

For each item there should be 3 specific pros and 3 specific cons.

5. "recommendation": A balanced recommendation of 4 to 5 sentences using the actual item names.`

const winnerWithPreferences = `WINNER RULES:
The user HAS provided preferences.

You MUST include:
- "personalized_winner": The exact name of the item that best matches their preferences, copied from the item list
- "winner_reason": 2-3 sentences explaining WHY this item won based on their specific needs`

const winnerWithoutPreferences = `WINNER RULES:
The user has NOT provided any preferences.

You MUST NOT include a personalized winner:
- Omit "personalized_winner" and "winner_reason" (or set both to null)
- Provide a balanced "recommendation" that works for different use cases`

const messageVariant = `REJECTION FORMAT:
When the items cannot be compared, return ONLY {"message": "<reason>"} and no other field.`

// instructionsFor renders the system contract for one category. The result
// depends only on the category, whether preferences are present and whether
// grounding succeeded.
func instructionsFor(category models.Category, hasPreferences, grounded bool) string {
	rules := models.RulesFor(category)

	var parts []string
	parts = append(parts, roleContract)

	if grounded {
		parts = append(parts, groundedRules)
	} else {
		parts = append(parts, ungroundedRules)
	}

	parts = append(parts, outputFormat)

	if hasPreferences {
		parts = append(parts, winnerWithPreferences)
	} else {
		parts = append(parts, winnerWithoutPreferences)
	}

	parts = append(parts, categoryListing())
	parts = append(parts, validationRules(rules))
	parts = append(parts, messageVariant)
	parts = append(parts, `CRITICAL: Always use the ACTUAL item names provided by the user. Never use "Item 1", "Item 2", etc.`)

	return strings.Join(parts, "\n\n")
}

func categoryListing() string {
	var lines []string
	lines = append(lines, "CATEGORIES:")
	lines = append(lines, "")
	lines = append(lines, "The app has these categories:")
	for _, c := range models.AllCategories() {
		lines = append(lines, fmt.Sprintf("- %s (%s)", c, models.RulesFor(c).Scope))
	}
	return strings.Join(lines, "\n")
}

func validationRules(rules models.CategoryRules) string {
	var lines []string
	lines = append(lines, "VALIDATION RULES:")
	lines = append(lines, fmt.Sprintf("The requested category is %s.", rules.Category))
	if rules.Strict {
		lines = append(lines, fmt.Sprintf("- Make sure every item actually belongs to %s (%s)", rules.Category, rules.Scope))
		lines = append(lines, fmt.Sprintf(`- If they don't fit, return: {"message": "%s"}`,
			fmt.Sprintf(models.MessageCategoryPattern, rules.Category)))
	} else {
		lines = append(lines, `- Only reject if the items are nonsensical (like single letters "f" vs "d")`)
	}
	lines = append(lines, "")
	lines = append(lines, "ALWAYS REJECT:")
	lines = append(lines, `- Single letters or very short gibberish (e.g., "f" vs "d", "xyz" vs "abc")`)
	lines = append(lines, fmt.Sprintf(`Return: {"message": "%s"}`, models.MessageUnclearItems))
	return strings.Join(lines, "\n")
}
