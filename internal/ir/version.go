package ir

// GeneratorVersion is checked against a library's `requires` constraint.
const GeneratorVersion = "1.4.0"
