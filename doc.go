/*
Package survey runs branching questionnaires.

A survey is a list of question records, the same rows a spreadsheet tab
would hold: an id, a type, the prompt, "|"-separated options and a branch
rule. The records are compiled into a question graph, and the engine walks
that graph one answer at a time.

# Concept

Every session is a plain State value: the current question, the answers
given so far, the ordered path and a history stack for going back. The
engine keeps no session data of its own, so the same Engine can serve a
terminal, an HTTP API and an MCP agent at once. Storage and locking of
states is left to pkg/session and the adapters under pkg/adapters.

Branch rules come in three forms:

	default:q5                      always go to q5
	random:q5|q6                    pick one target uniformly
	Manager:q_a|Team Lead:q_b       first clause whose trigger the answer contains

The reserved target "submit" ends the survey.

# Usage

	eng, err := survey.Open(ctx, "survey.yaml")
	if err != nil {
		log.Fatal(err)
	}

	state, _ := eng.Start(ctx, "session-123")
	state, _ = eng.Advance(ctx, state, "Manager")
	if state.IsTerminal() {
		sub, _ := eng.Submission(ctx, state)
		fmt.Println(sub.PathString())
	}

Surveys can also be built in code with pkg/dsl and served with cmd/survey.
*/
package survey
