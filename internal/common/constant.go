package common

// NewDocumentID is the reserved route/document identifier meaning "no backing
// document yet; initialize the form with schema defaults".
const NewDocumentID = "new"

// DefaultRole is substituted when a role assignment carries an empty role set.
const DefaultRole = "def"

// RolesCollection is the document collection watched by the claims synchronizer.
const RolesCollection = "userRoles"
