package lexical

var stopwords = NewSet(
	"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at",
	"by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "its", "this", "that",
	"these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such",
	"into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off",
	"own", "same", "too", "very", "can", "will", "just", "don", "should", "now", "not", "no", "nor",
	"what", "when", "where", "which", "who", "whom", "whose", "why", "how", "does", "did", "do", "done",
	"has", "have", "had", "having", "tell", "me", "you", "your", "please", "help", "explain", "there",
	"their", "they", "them", "his", "her", "she", "him", "our", "we", "us", "any", "all", "some",
	"also", "would", "could", "may", "might", "must", "shall", "each", "other", "more", "most",
	"only", "here", "both", "few", "many", "much", "i", "my", "am", "describe", "give", "list",
	"show", "know",
)

// IsStopword returns true if t is a common English function or question word.
// t must already be lowercase.
func IsStopword(t string) bool {
	return stopwords.Has(t)
}
