// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package search

import (
	"strings"

	"github.com/pkoukk/tiktoken-go"
	"github.com/poiesic/corpus/core"
)

// TokenCounter measures text length in model tokens.
type TokenCounter interface {
	Count(text string) (int, error)
}

// TiktokenCounter counts tokens with the cl100k_base encoding, matching the
// tokenizer of the OpenAI embedding and chat models.
type TiktokenCounter struct {
	encoding *tiktoken.Tiktoken
}

var _ TokenCounter = (*TiktokenCounter)(nil)

// NewTiktokenCounter loads the cl100k_base encoding. The encoding data is
// fetched and cached on first use.
func NewTiktokenCounter() (*TiktokenCounter, error) {
	encoding, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, err
	}
	return &TiktokenCounter{encoding: encoding}, nil
}

func (c *TiktokenCounter) Count(text string) (int, error) {
	return len(c.encoding.Encode(text, nil, nil)), nil
}

// Turn is one exchange in a conversation history.
type Turn struct {
	Role    string
	Content string
}

// ContextBuilder assembles retrieved nodes into a prompt context that fits a
// token budget.
type ContextBuilder struct {
	counter TokenCounter
}

// NewContextBuilder creates a builder using the given token counter.
func NewContextBuilder(counter TokenCounter) (*ContextBuilder, error) {
	if counter == nil {
		return nil, ErrCounterRequired
	}
	return &ContextBuilder{counter: counter}, nil
}

// Build joins result texts in rank order, separated by blank lines, stopping
// before the first node that would push the total past the budget. Higher
// ranked results are never dropped in favor of lower ranked ones.
func (b *ContextBuilder) Build(results []*core.ScoredNode, budget int) (string, error) {
	if budget <= 0 {
		return "", ErrInvalidBudget
	}

	separatorTokens, err := b.counter.Count("\n\n")
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	used := 0
	for _, result := range results {
		tokens, err := b.counter.Count(result.Node.Text)
		if err != nil {
			return "", err
		}
		cost := tokens
		if sb.Len() > 0 {
			cost += separatorTokens
		}
		if used+cost > budget {
			break
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(result.Node.Text)
		used += cost
	}
	return sb.String(), nil
}

// TrimHistory keeps the newest conversation turns that fit the budget,
// dropping from the oldest end first. The surviving turns keep their
// original order.
func (b *ContextBuilder) TrimHistory(turns []Turn, budget int) ([]Turn, error) {
	if budget <= 0 {
		return nil, ErrInvalidBudget
	}

	used := 0
	keepFrom := len(turns)
	for i := len(turns) - 1; i >= 0; i-- {
		tokens, err := b.counter.Count(turns[i].Content)
		if err != nil {
			return nil, err
		}
		if used+tokens > budget {
			break
		}
		used += tokens
		keepFrom = i
	}
	return turns[keepFrom:], nil
}
