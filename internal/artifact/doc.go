// Package artifact defines the domain model for canvas artifacts:
// structured, versionable units of content (code, documents, diagrams)
// extracted from AI chat responses.
//
// Versioning is dynamic: an artifact's version is its rank by creation time
// among artifacts sharing a normalized title within one conversation. See
// ResolveVersion.
package artifact
