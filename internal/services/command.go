package services

import (
	"regexp"
	"strings"
)

// AddProductCommand is the chat command sellers use to list a product
const AddProductCommand = "/addproduct"

// CommandKind classifies an inbound message against the command grammar
type CommandKind int

const (
	// CommandUnmatched is the ordinary case: the message is a question for the assistant
	CommandUnmatched CommandKind = iota
	// CommandMalformed is a failed attempt at /addproduct
	CommandMalformed
	// CommandMatched carries a valid price and description
	CommandMatched
)

func (k CommandKind) String() string {
	switch k {
	case CommandMatched:
		return "matched"
	case CommandMalformed:
		return "malformed"
	default:
		return "unmatched"
	}
}

// ParseResult is the outcome of ParseCommand. Price and Description are only
// set when Kind is CommandMatched.
type ParseResult struct {
	Kind        CommandKind
	Price       string
	Description string
}

// Currency symbol, optional space, amount with up to two decimals, then the
// rest of the message (newlines included) as the description.
var addProductPattern = regexp.MustCompile(`(?is)^\s*/addproduct\s*(\p{Sc}\s*\d+(?:\.\d{1,2})?)\s+(.+)$`)

// ParseCommand interprets a message body. numMedia is the number of
// attachments delivered with the message; /addproduct needs at least one.
func ParseCommand(body string, numMedia int) ParseResult {
	if !strings.HasPrefix(strings.ToLower(body), AddProductCommand) {
		return ParseResult{Kind: CommandUnmatched}
	}
	if numMedia < 1 {
		return ParseResult{Kind: CommandMalformed}
	}

	m := addProductPattern.FindStringSubmatch(body)
	if m == nil {
		return ParseResult{Kind: CommandMalformed}
	}

	description := strings.TrimSpace(m[2])
	if description == "" {
		return ParseResult{Kind: CommandMalformed}
	}

	return ParseResult{
		Kind:        CommandMatched,
		Price:       strings.TrimSpace(m[1]),
		Description: description,
	}
}
