package service

import (
	"fmt"
	"strings"

	"askly/internal/domain"
)

// InsufficientContextAnswer is returned without calling the model when no
// document matches.
const InsufficientContextAnswer = "I couldn't find any relevant information in your uploaded documents to answer that. Try uploading related sources or rephrasing the question."

const contextSeparator = "\n\n---\n\n"

const systemPromptTemplate = `You are a helpful AI assistant that answers questions based on the provided context.

Context from user's documents:
%s

Instructions:
- Answer questions using ONLY the information from the provided context
- If the context doesn't contain enough information to answer, say so clearly
- Cite the document number when referencing specific information, e.g. [Document 1]
- Be concise and accurate
- If asked about something not in the context, politely explain you can only answer based on the uploaded documents`

// Label is the reference label of the i-th retrieved chunk, counting from zero.
func Label(i int) string { return fmt.Sprintf("Document %d", i+1) }

// sourceName is the name shown next to a chunk in the prompt and citations.
func sourceName(m domain.ChunkMetadata) string {
	for _, v := range []string{m.DisplayName(), m.URL, m.VideoURL} {
		if v != "" {
			return v
		}
	}
	return "Unknown"
}

// BuildContext enumerates results in search order.
func BuildContext(results []domain.SearchResult) string {
	blocks := make([]string, len(results))
	for i, r := range results {
		blocks[i] = fmt.Sprintf("[%s: %s]\n%s", Label(i), sourceName(r.Chunk.Metadata), r.Chunk.Text)
	}
	return strings.Join(blocks, contextSeparator)
}

// SystemPrompt constrains the model to the given context.
func SystemPrompt(context string) string {
	return fmt.Sprintf(systemPromptTemplate, context)
}

// TrimHistory keeps the last limit user and assistant turns. Other roles are
// dropped so callers cannot inject system instructions.
func TrimHistory(history []domain.Message, limit int) []domain.Message {
	out := make([]domain.Message, 0, len(history))
	for _, m := range history {
		if (m.Role != domain.RoleUser && m.Role != domain.RoleAssistant) || strings.TrimSpace(m.Content) == "" {
			continue
		}
		out = append(out, m)
	}
	if limit >= 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

// BuildMessages assembles the model conversation: system prompt, recent
// history, then the question.
func BuildMessages(results []domain.SearchResult, history []domain.Message, question string, historyLimit int) []domain.Message {
	msgs := []domain.Message{{Role: domain.RoleSystem, Content: SystemPrompt(BuildContext(results))}}
	msgs = append(msgs, TrimHistory(history, historyLimit)...)
	return append(msgs, domain.Message{Role: domain.RoleUser, Content: question})
}

// Sources lists one citation per retrieved chunk, in search order.
func Sources(results []domain.SearchResult) []domain.Source {
	out := make([]domain.Source, len(results))
	for i, r := range results {
		m := r.Chunk.Metadata
		url := m.URL
		if url == "" {
			url = m.VideoURL
		}
		out[i] = domain.Source{
			Label:      Label(i),
			DocumentID: m.DocumentID,
			Name:       sourceName(m),
			Type:       m.Source,
			FileName:   m.FileName,
			TextName:   m.TextName,
			URL:        url,
			VideoTitle: m.VideoTitle,
			ChunkIndex: m.ChunkIndex,
			Score:      r.Score,
			Text:       r.Chunk.Text,
		}
	}
	return out
}
