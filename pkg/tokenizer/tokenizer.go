package tokenizer

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

// MaxPromptTokens is the longest prompt, in GPT-2 tokens, the video model accepts.
const MaxPromptTokens = 226

// gpt2Encoding is the BPE vocabulary of the GPT-2 tokenizer.
const gpt2Encoding = "r50k_base"

type Tokenizer struct {
	enc *tiktoken.Tiktoken
}

var (
	defaultOnce sync.Once
	defaultTok  *Tokenizer
	defaultErr  error
)

// Default returns the process-wide tokenizer, loading the vocabulary on first use.
// The vocabulary ships with the binary so loading never touches the network.
func Default() (*Tokenizer, error) {
	defaultOnce.Do(func() {
		tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
		enc, err := tiktoken.GetEncoding(gpt2Encoding)
		if err != nil {
			defaultErr = fmt.Errorf("load %s encoding: %w", gpt2Encoding, err)
			return
		}
		defaultTok = &Tokenizer{enc: enc}
	})
	return defaultTok, defaultErr
}

func (t *Tokenizer) CountTokens(text string) int {
	return len(t.enc.Encode(text, nil, nil))
}

// ValidatePromptLength returns an error naming the token count when text is longer
// than MaxPromptTokens.
func (t *Tokenizer) ValidatePromptLength(text string) error {
	if n := t.CountTokens(text); n > MaxPromptTokens {
		return fmt.Errorf("prompt is %d tokens, maximum is %d", n, MaxPromptTokens)
	}
	return nil
}
