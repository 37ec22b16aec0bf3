package pipeline

import (
	"regexp"
	"strings"

	"github.com/siherrmann/resolver/model"
)

var (
	addressPattern = regexp.MustCompile(
		`(?i)(\d+\s+[\w\s]+(?:street|st|avenue|ave|road|rd|drive|dr|lane|ln|blvd|boulevard|way|court|ct|place|pl))` +
			`[,\s]+([a-zA-Z\s]+)[,\s]+([A-Z]{2})\s+(\d{5}(?:-\d{4})?)`)
	phonePattern = regexp.MustCompile(`(\+?\d{1,3}[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`)
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	namePattern  = regexp.MustCompile(`(?m)^([A-Z][a-z]+(?:\s+[A-Z][a-z]+)+)$`)
)

// DefaultExtractor creates a heuristic regex-based field extractor.
// It recognizes postal addresses, phone numbers, emails, capitalized full
// names and a leading organization line. Deployments with an external
// extraction model plug it in via the ExtractFunc type instead.
func DefaultExtractor() ExtractFunc {
	return func(text string, entityType model.EntityType) (*model.ExtractedRecord, error) {
		record := &model.ExtractedRecord{Type: entityType}
		text = strings.TrimSpace(text)
		if text == "" {
			return record, nil
		}

		if match := addressPattern.FindStringSubmatch(text); match != nil {
			record.Address = strings.TrimSpace(match[1])
			record.City = strings.TrimSpace(match[2])
			record.State = strings.TrimSpace(match[3])
			record.Zip = strings.TrimSpace(match[4])
		}

		if phone := phonePattern.FindString(text); phone != "" {
			record.Phone = phone
		}

		if email := emailPattern.FindString(text); email != "" {
			record.Email = email
		}

		// Lines consisting of capitalized words are name candidates
		if match := namePattern.FindStringSubmatch(text); match != nil {
			nameParts := strings.Fields(match[1])
			if len(nameParts) >= 2 {
				record.FirstName = nameParts[0]
				record.LastName = strings.Join(nameParts[1:], " ")
			} else if len(nameParts) == 1 {
				record.FirstName = nameParts[0]
			}
		}

		// Without a personal name, a digit-free first line is read as an
		// organization name
		if record.FirstName == "" {
			firstLine := strings.TrimSpace(strings.SplitN(text, "\n", 2)[0])
			if firstLine != "" && !strings.ContainsAny(firstLine, "0123456789") {
				record.OrganizationName = firstLine
			}
		}

		return record, nil
	}
}

// SplitBlocks splits raw document text into sender, recipient and body sections.
// The first text block of the page is read as the sender, a block after a
// "To:" or "Re:" indicator as the recipient, the rest as body.
func SplitBlocks(text string) *ParsedBlocks {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	blocks := &ParsedBlocks{}
	bodyStart := 0

	// First text block in the top corner is usually the sender, closed by a
	// blank line or after five lines
	var firstBlock []string
	for i, line := range lines {
		if i >= 15 {
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			if len(firstBlock) > 0 {
				bodyStart = i + 1
				break
			}
			continue
		}
		firstBlock = append(firstBlock, line)
		bodyStart = i + 1
		if len(firstBlock) >= 5 {
			break
		}
	}
	blocks.SenderText = strings.Join(firstBlock, "\n")

	// Recipient indicators in the remaining lines
	remaining := lines[bodyStart:]
	var recipientBlock []string
	recipientEnd := 0
	foundRecipient := false
	for i, line := range remaining {
		if i >= 20 {
			break
		}
		line = strings.TrimSpace(line)
		lower := strings.ToLower(line)
		if !foundRecipient {
			if strings.Contains(lower, "to:") || strings.Contains(lower, "re:") {
				foundRecipient = true
			}
			continue
		}
		if line == "" {
			if len(recipientBlock) > 0 {
				break
			}
			continue
		}
		recipientBlock = append(recipientBlock, line)
		recipientEnd = i + 1
		if len(recipientBlock) >= 4 {
			break
		}
	}
	if len(recipientBlock) > 0 {
		blocks.RecipientText = strings.Join(recipientBlock, "\n")
		bodyStart += recipientEnd
	}

	blocks.BodyText = strings.TrimSpace(strings.Join(lines[bodyStart:], "\n"))

	return blocks
}

// NormalizeFields flattens nested extraction output and remaps common field
// aliases. External extractors return shapes like
// {"address": {"street_address": "...", "city": "..."}}, which collapses to
// flat keys with street_address mapped to address.
func NormalizeFields(data model.Metadata) model.Metadata {
	normalized := model.Metadata{}

	setKey := func(key, value string) {
		if key == "street_address" {
			key = "address"
		}
		normalized[key] = value
	}

	for key, value := range data {
		switch typed := value.(type) {
		case map[string]interface{}:
			for nestedKey, nestedValue := range typed {
				if nestedString, ok := nestedValue.(string); ok {
					setKey(nestedKey, nestedString)
				}
			}
		case string:
			setKey(key, typed)
		}
		// Non-string, non-map values are dropped
	}

	return normalized
}

// NormalizedRecord rebuilds an ExtractedRecord for the given entity variant
// from (possibly nested) extraction output.
func NormalizedRecord(entityType model.EntityType, data model.Metadata) *model.ExtractedRecord {
	return model.RecordFromSnapshot(entityType, NormalizeFields(data))
}
