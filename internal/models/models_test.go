package models

import (
	"reflect"
	"testing"
)

func batchOf(words ...string) *BatchRecord {
	b := &BatchRecord{BatchNo: "HW_1"}
	for _, w := range words {
		b.Words = append(b.Words, BatchWord{Word: w})
	}
	return b
}

func memorized(b *BatchRecord) []bool {
	out := make([]bool, len(b.Words))
	for i, w := range b.Words {
		out[i] = w.IsMemorized
	}
	return out
}

func TestBatchConsumeNext(t *testing.T) {
	tests := []struct {
		name          string
		batch         *BatchRecord
		attempted     map[string]bool
		wantWord      string
		wantFound     bool
		wantMemorized []bool
		wantFinished  bool
	}{
		{
			name:          "first unmemorized word",
			batch:         batchOf("apple", "pear", "plum"),
			wantWord:      "apple",
			wantFound:     true,
			wantMemorized: []bool{true, false, false},
		},
		{
			name:          "skipped words attempted today are consumed",
			batch:         batchOf("apple", "pear", "plum"),
			attempted:     map[string]bool{"apple": true},
			wantWord:      "pear",
			wantFound:     true,
			wantMemorized: []bool{true, true, false},
		},
		{
			name:          "selecting the last word finishes the batch",
			batch:         &BatchRecord{Words: BatchWords{{Word: "apple", IsMemorized: true}, {Word: "pear"}}},
			wantWord:      "pear",
			wantFound:     true,
			wantMemorized: []bool{true, true},
			wantFinished:  true,
		},
		{
			name:          "everything attempted today",
			batch:         batchOf("apple", "pear"),
			attempted:     map[string]bool{"apple": true, "pear": true},
			wantFound:     false,
			wantMemorized: []bool{true, true},
			wantFinished:  true,
		},
		{
			name:          "empty batch",
			batch:         batchOf(),
			wantFound:     false,
			wantMemorized: []bool{},
			wantFinished:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			word, found := tt.batch.ConsumeNext(tt.attempted)
			if word != tt.wantWord || found != tt.wantFound {
				t.Errorf("ConsumeNext() = (%q, %v), want (%q, %v)", word, found, tt.wantWord, tt.wantFound)
			}
			if got := memorized(tt.batch); !reflect.DeepEqual(got, tt.wantMemorized) {
				t.Errorf("memorized flags = %v, want %v", got, tt.wantMemorized)
			}
			if tt.batch.IsFinished != tt.wantFinished {
				t.Errorf("IsFinished = %v, want %v", tt.batch.IsFinished, tt.wantFinished)
			}
		})
	}
}

func TestBatchAppend(t *testing.T) {
	b := batchOf("apple")
	b.Words[0].IsMemorized = true
	b.IsFinished = true

	added := b.Append([]string{"apple", "pear", "pear", "plum"})
	if added != 2 {
		t.Errorf("Append() = %d, want 2", added)
	}
	if b.IsFinished {
		t.Error("Append() should reopen the batch")
	}
	want := []string{"apple", "pear", "plum"}
	if got := b.WordList(); !reflect.DeepEqual(got, want) {
		t.Errorf("WordList() = %v, want %v", got, want)
	}
	if !b.Words[0].IsMemorized {
		t.Error("Append() must not reset existing entries")
	}

	b.IsFinished = true
	if added := b.Append([]string{"apple"}); added != 0 || !b.IsFinished {
		t.Errorf("Append() of known words = %d finished=%v, want 0 finished=true", added, b.IsFinished)
	}
}

func TestBatchSequence(t *testing.T) {
	tests := []struct {
		batchNo string
		want    int
	}{
		{"HW_1", 1},
		{"HW_12", 12},
		{"IW_20240101-0107", 0},
		{"20240101120000", 0},
	}

	for _, tt := range tests {
		t.Run(tt.batchNo, func(t *testing.T) {
			b := &BatchRecord{BatchNo: tt.batchNo}
			if got := b.Sequence(); got != tt.want {
				t.Errorf("Sequence() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBatchFree(t *testing.T) {
	b := batchOf("a", "b")
	if got := b.Free(); got != -1 {
		t.Errorf("Free() unbounded = %v, want -1", got)
	}
	b.Capacity = 15
	if got := b.Free(); got != 13 {
		t.Errorf("Free() = %v, want 13", got)
	}
	b.Capacity = 1
	if got := b.Free(); got != 0 {
		t.Errorf("Free() over capacity = %v, want 0", got)
	}
}

func TestLevelForSlainedRatio(t *testing.T) {
	tests := []struct {
		ratio float64
		want  UserLevel
	}{
		{0, LevelKungFuKid},
		{0.19, LevelKungFuKid},
		{0.2, LevelRisingStar},
		{0.5, LevelWanderingHero},
		{0.8, LevelGrandmaster},
		{0.9999, LevelGrandmaster},
		{1.0, LevelSupreme},
	}

	for _, tt := range tests {
		if got := LevelForSlainedRatio(tt.ratio); got != tt.want {
			t.Errorf("LevelForSlainedRatio(%v) = %v, want %v", tt.ratio, got, tt.want)
		}
	}
}

func TestMaskWord(t *testing.T) {
	tests := []struct {
		word   string
		status WordStatus
		want   string
	}{
		{"apple", WordStatusWait, "a****"},
		{"apple", WordStatusInProgress, "a****"},
		{"apple", WordStatusMastered, "apple"},
		{"a", WordStatusWait, "a"},
		{"café", WordStatusWait, "c***"},
	}

	for _, tt := range tests {
		if got := MaskWord(tt.word, tt.status); got != tt.want {
			t.Errorf("MaskWord(%q, %v) = %q, want %q", tt.word, tt.status, got, tt.want)
		}
	}
}

func TestStringListSetOps(t *testing.T) {
	tags := StringList{"verb", "hard"}

	if got := tags.Union([]string{"hard", "travel"}); !reflect.DeepEqual(got, StringList{"verb", "hard", "travel"}) {
		t.Errorf("Union() = %v", got)
	}
	if got := tags.Difference([]string{"hard", "missing"}); !reflect.DeepEqual(got, StringList{"verb"}) {
		t.Errorf("Difference() = %v", got)
	}
	if !reflect.DeepEqual(tags, StringList{"verb", "hard"}) {
		t.Errorf("set operations mutated the receiver: %v", tags)
	}
}

func TestJSONColumnScan(t *testing.T) {
	var words BatchWords
	if err := words.Scan([]byte(`[{"word":"apple","is_memorized":true}]`)); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(words) != 1 || words[0].Word != "apple" || !words[0].IsMemorized {
		t.Errorf("Scan() = %+v", words)
	}

	var tags StringList
	if err := tags.Scan(nil); err != nil {
		t.Fatalf("Scan(nil) error = %v", err)
	}
	if len(tags) != 0 {
		t.Errorf("Scan(nil) = %v, want empty", tags)
	}

	v, err := StringList(nil).Value()
	if err != nil || v != "[]" {
		t.Errorf("Value() = %v, %v, want []", v, err)
	}
}
