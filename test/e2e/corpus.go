// Package e2e provides end-to-end tests with a generated corpus and query cases.
package e2e

import "fmt"

// Document is a corpus entry: a base name (without extension) and its text.
type Document struct {
	Name    string
	Content string
}

// Corpus holds the generated documents. Each document carries a unique marker
// term so queries can assert that exactly the right document comes back.
type Corpus struct {
	Documents []Document
}

var topics = []struct {
	name string
	body string
}{
	{"python", "Python is a high-level programming language. Python is widely used for scripting and data science."},
	{"networks", "Computer networks move packets between hosts. Routing protocols decide the path each packet takes."},
	{"databases", "Relational databases store rows in tables. Transactions keep concurrent writes consistent."},
	{"compilers", "Compilers translate source code into machine code. Optimization passes rewrite the intermediate representation."},
	{"cooking", "Slow cooking breaks down tough cuts of meat. A heavy pot holds heat evenly across the base."},
	{"astronomy", "Telescopes collect light from distant stars. Spectral lines reveal the composition of a star."},
}

// BuildCorpus generates n documents cycling through the topics. Document i
// gets topic i%len(topics) and the unique marker term Marker(i).
func BuildCorpus(n int) *Corpus {
	docs := make([]Document, 0, n)
	for i := 0; i < n; i++ {
		t := topics[i%len(topics)]
		docs = append(docs, Document{
			Name:    fmt.Sprintf("%s-%02d", t.name, i),
			Content: fmt.Sprintf("%s The marker %s identifies this document.", t.body, Marker(i)),
		})
	}
	return &Corpus{Documents: docs}
}

// Marker returns the unique term planted in document i.
func Marker(i int) string {
	return fmt.Sprintf("marker%04d", i)
}

// TopicName returns the topic word of document i.
func TopicName(i int) string {
	return topics[i%len(topics)].name
}
