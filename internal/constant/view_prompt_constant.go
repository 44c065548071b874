package constant

const (
	ViewRecommendationPrompt = `You classify documents into analytical views.

Available views: %s
- qa: the document is mostly questions and answers, FAQs or interview material
- system: the document describes components, architecture, modules and their dependencies
- learning: the document teaches a procedure: install, configure, use, step by step

Structural scores measured from the text (0 to 1):
%s

Document excerpt:
"""
%s
"""

Reply with a single JSON object and nothing else:
{"primary_view": "<one view>", "enabled_views": ["<views worth producing, primary included>"]}`

	QAExtractionPrompt = `Extract question/answer pairs from the document segments below.
Each segment starts with its id in square brackets.

%s

Reply with a single JSON object and nothing else:
{"pairs": [{"question": "...", "answer": "...", "source_ids": ["seg-0"], "confidence": 0-100}]}`

	SystemAnalysisPrompt = `Describe the system explained by the document segments below.
Each segment starts with its id in square brackets.

%s

Reply with a single JSON object and nothing else:
{"summary": "...",
 "components": [{"name": "...", "responsibility": "...", "source_ids": ["seg-0"]}],
 "dependencies": [{"from": "...", "to": "...", "kind": "..."}],
 "confidence": 0-100}`

	LearningPathPrompt = `Turn the document segments below into a learning path.
Each segment starts with its id in square brackets.

%s

Reply with a single JSON object and nothing else:
{"goal": "...",
 "prerequisites": ["..."],
 "steps": [{"order": 1, "title": "...", "detail": "...", "source_ids": ["seg-0"]}],
 "confidence": 0-100}`
)
