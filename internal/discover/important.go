package discover

import (
	"path/filepath"
	"strings"
)

// rootImportantFiles are repo-root files prioritized in map output even
// when they carry no ranked tags.
var rootImportantFiles = map[string]struct{}{
	// Version Control
	".gitignore":     {},
	".gitattributes": {},
	// Documentation
	"README": {}, "README.md": {}, "README.txt": {}, "README.rst": {},
	"CONTRIBUTING": {}, "CONTRIBUTING.md": {}, "CONTRIBUTING.txt": {}, "CONTRIBUTING.rst": {},
	"LICENSE": {}, "LICENSE.md": {}, "LICENSE.txt": {},
	"CHANGELOG": {}, "CHANGELOG.md": {}, "CHANGELOG.txt": {}, "CHANGELOG.rst": {},
	"SECURITY": {}, "SECURITY.md": {}, "SECURITY.txt": {},
	"CODEOWNERS": {},
	// Package management and dependencies
	"requirements.txt": {}, "Pipfile": {}, "Pipfile.lock": {},
	"pyproject.toml": {}, "setup.py": {}, "setup.cfg": {},
	"package.json": {}, "package-lock.json": {}, "yarn.lock": {}, "npm-shrinkwrap.json": {},
	"Gemfile": {}, "Gemfile.lock": {},
	"composer.json": {}, "composer.lock": {},
	"pom.xml": {}, "build.gradle": {}, "build.gradle.kts": {}, "build.sbt": {},
	"go.mod": {}, "go.sum": {},
	"Cargo.toml": {}, "Cargo.lock": {},
	"mix.exs": {}, "rebar.config": {}, "project.clj": {},
	"Podfile": {}, "Cartfile": {}, "dub.json": {}, "dub.sdl": {},
	// Configuration and settings
	".env": {}, ".env.example": {}, ".editorconfig": {},
	"tsconfig.json": {}, "jsconfig.json": {},
	".babelrc": {}, "babel.config.js": {},
	".eslintrc": {}, ".eslintignore": {}, ".prettierrc": {}, ".stylelintrc": {},
	"tslint.json": {}, ".pylintrc": {}, ".flake8": {}, ".rubocop.yml": {}, ".scalafmt.conf": {},
	".dockerignore": {}, ".gitpod.yml": {}, "sonar-project.properties": {},
	"renovate.json": {}, "dependabot.yml": {}, ".pre-commit-config.yaml": {},
	"mypy.ini": {}, "tox.ini": {}, ".yamllint": {}, "pyrightconfig.json": {},
	// Build and compilation
	"webpack.config.js": {}, "rollup.config.js": {}, "parcel.config.js": {},
	"gulpfile.js": {}, "Gruntfile.js": {}, "build.xml": {}, "build.boot": {},
	"project.json": {}, "build.cake": {}, "MANIFEST.in": {},
	// Testing
	"pytest.ini": {}, "phpunit.xml": {}, "karma.conf.js": {}, "jest.config.js": {},
	"cypress.json": {}, ".nycrc": {}, ".nycrc.json": {},
	// CI/CD
	".travis.yml": {}, ".gitlab-ci.yml": {}, "Jenkinsfile": {},
	"azure-pipelines.yml": {}, "bitbucket-pipelines.yml": {}, "appveyor.yml": {}, "circle.yml": {},
	".circleci/config.yml": {}, ".github/dependabot.yml": {},
	"codecov.yml": {}, ".coveragerc": {},
	// Docker and containers
	"Dockerfile": {}, "docker-compose.yml": {}, "docker-compose.override.yml": {},
	// Cloud and serverless
	"serverless.yml": {}, "firebase.json": {}, "now.json": {}, "netlify.toml": {}, "vercel.json": {},
	"app.yaml": {}, "terraform.tf": {}, "main.tf": {},
	"cloudformation.yaml": {}, "cloudformation.json": {},
	"ansible.cfg": {}, "kubernetes.yaml": {}, "k8s.yaml": {},
	// Database
	"schema.sql": {}, "liquibase.properties": {}, "flyway.conf": {},
	// Framework-specific
	"next.config.js": {}, "nuxt.config.js": {}, "vue.config.js": {}, "angular.json": {},
	"gatsby-config.js": {}, "gridsome.config.js": {},
	// API documentation
	"swagger.yaml": {}, "swagger.json": {}, "openapi.yaml": {}, "openapi.json": {},
	// Development environment
	".nvmrc": {}, ".ruby-version": {}, ".python-version": {}, "Vagrantfile": {},
	// Quality and metrics
	".codeclimate.yml": {},
	// Documentation sites
	"mkdocs.yml": {}, "_config.yml": {}, "book.toml": {}, "readthedocs.yml": {}, ".readthedocs.yaml": {},
	// Package registries
	".npmrc": {}, ".yarnrc": {},
	// Linting and formatting
	".isort.cfg": {}, ".markdownlint.json": {}, ".markdownlint.yaml": {},
	// Security
	".bandit": {}, ".secrets.baseline": {},
	// Misc
	".pypirc": {}, ".gitkeep": {}, ".npmignore": {},
}

// IsImportant reports whether a repo-relative path is one of the
// well-known important files, or a GitHub Actions workflow.
func IsImportant(relPath string) bool {
	normalized := filepath.ToSlash(filepath.Clean(relPath))

	dir := filepath.ToSlash(filepath.Dir(normalized))
	base := filepath.Base(normalized)
	if dir == ".github/workflows" && (strings.HasSuffix(base, ".yml") || strings.HasSuffix(base, ".yaml")) {
		return true
	}

	_, ok := rootImportantFiles[normalized]
	return ok
}

// FilterImportant returns the subset of repo-relative paths that are
// considered important.
func FilterImportant(relPaths []string) []string {
	var out []string
	for _, p := range relPaths {
		if IsImportant(p) {
			out = append(out, p)
		}
	}
	return out
}
