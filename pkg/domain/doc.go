/*
Package domain contains the core domain models of the survey runner.

It defines the question graph, the branch rule grammar and the navigation
state of a respondent session. This package is kept pure and free of
external dependencies like I/O or persistence, following Hexagonal
Architecture principles.

# Key Entities

  - QuestionNode: One step of the survey (choice, auto or informational).
  - Rule: A parsed branch expression (terminal, default, random or conditional).
  - Graph: The ordered, immutable set of nodes a survey is made of.
  - State: The runtime snapshot of a session (current node, answers, path).
  - Submission: The response set produced when a session reaches submit.
*/
package domain
