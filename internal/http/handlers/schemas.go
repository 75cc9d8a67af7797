package handlers

import "github.com/tbourn/go-quotes-api/internal/validation"

// Route schemas evaluated by middleware.ValidateSchema before the handlers.
// ListQuotes still rejects values that do not fit an int.
var (
	ListQuotesSchema = validation.Schema{
		Query: map[string]validation.Rule{
			"limit": {Type: validation.TypeString, Pattern: validation.Digits, MinLength: 1},
			"page":  {Type: validation.TypeString, Pattern: validation.Digits, MinLength: 1},
		},
	}

	QuoteIDSchema = validation.Schema{
		Params: map[string]validation.Rule{
			"id": {Required: true, Type: validation.TypeString, Pattern: validation.Digits, MinLength: 1},
		},
	}

	CreateQuoteSchema = validation.Schema{
		Body: map[string]validation.Rule{
			"author": {Type: validation.TypeString, MaxLength: 128},
			"text":   {Required: true, Type: validation.TypeString, MinLength: 1, MaxLength: 512},
		},
	}
)
