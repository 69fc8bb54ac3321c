package embedding

import "testing"

func TestSimpleTokenizer(t *testing.T) {
	tok := &SimpleTokenizer{}
	inputIDs, attentionMask, tokenTypeIDs := tok.Tokenize("hello world", 8)
	if len(inputIDs) != 8 || len(attentionMask) != 8 || len(tokenTypeIDs) != 8 {
		t.Fatalf("lengths = %d/%d/%d, want 8", len(inputIDs), len(attentionMask), len(tokenTypeIDs))
	}
	if inputIDs[0] != 101 {
		t.Errorf("first token = %d, want [CLS] 101", inputIDs[0])
	}
	if inputIDs[3] != 102 {
		t.Errorf("token after words = %d, want [SEP] 102", inputIDs[3])
	}
	if attentionMask[0] != 1 || attentionMask[1] != 1 || attentionMask[4] != 0 {
		t.Errorf("attention mask wrong: %v", attentionMask)
	}
}

func TestSimpleTokenizer_Truncation(t *testing.T) {
	tok := &SimpleTokenizer{}
	inputIDs, _, _ := tok.Tokenize("a b c d e f g h", 4)
	if len(inputIDs) != 4 {
		t.Fatalf("len = %d, want 4", len(inputIDs))
	}
}

func TestSplitWords(t *testing.T) {
	words := SplitWords(" foo\tbar\nbaz ")
	if len(words) != 3 || words[0] != "foo" || words[2] != "baz" {
		t.Errorf("SplitWords = %v", words)
	}
}

func TestHashString_Stable(t *testing.T) {
	if HashString("recall") != HashString("recall") {
		t.Error("hash not stable")
	}
	if HashString("a") == HashString("b") {
		t.Error("distinct inputs should hash differently")
	}
}
