package server

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/url"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/gqlerrors"
)

// RequestOptions options
type RequestOptions struct {
	Query         string                 `json:"query" url:"query" schema:"query"`
	Variables     map[string]interface{} `json:"variables" url:"variables" schema:"variables"`
	OperationName string                 `json:"operationName" url:"operationName" schema:"operationName"`
}

// a workaround for getting`variables` as a JSON string
type requestOptionsCompatibility struct {
	Query         string `json:"query"`
	Variables     string `json:"variables"`
	OperationName string `json:"operationName"`
}

func getFromForm(values url.Values) *RequestOptions {
	query := values.Get("query")
	if query == "" {
		return nil
	}

	variables := map[string]interface{}{}
	if v := values.Get("variables"); v != "" {
		json.Unmarshal([]byte(v), &variables)
	}

	return &RequestOptions{
		Query:         query,
		Variables:     variables,
		OperationName: values.Get("operationName"),
	}
}

// NewRequestOptions Parses a http.Request into GraphQL request options struct
func NewRequestOptions(r *http.Request) *RequestOptions {
	if reqOpt := getFromForm(r.URL.Query()); reqOpt != nil {
		return reqOpt
	}

	if r.Method != http.MethodPost || r.Body == nil {
		return &RequestOptions{}
	}

	contentType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch contentType {
	case ContentTypeGraphQL:
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return &RequestOptions{}
		}
		return &RequestOptions{Query: string(body)}

	case ContentTypeFormURLEncoded:
		if err := r.ParseForm(); err == nil {
			if reqOpt := getFromForm(r.PostForm); reqOpt != nil {
				return reqOpt
			}
		}
		return &RequestOptions{}
	}

	opts := &RequestOptions{}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return opts
	}

	if err := json.Unmarshal(body, opts); err != nil {
		// Probably `variables` was sent as a string instead of an object.
		// So, we try to be polite and try to parse that as a JSON string
		var compat requestOptionsCompatibility
		json.Unmarshal(body, &compat)
		opts.Query = compat.Query
		opts.OperationName = compat.OperationName
		json.Unmarshal([]byte(compat.Variables), &opts.Variables)
	}
	return opts
}

// ContextHandler provides an entrypoint into executing graphQL queries with a
// user-provided context.
func (s *Server) ContextHandler(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	opts := NewRequestOptions(r)

	params := graphql.Params{
		Schema:         s.schema,
		RequestString:  opts.Query,
		VariableValues: opts.Variables,
		OperationName:  opts.OperationName,
		Context:        ctx,
		RootObject:     map[string]interface{}{},
	}

	if s.options.RootValueFunc != nil {
		if root := s.options.RootValueFunc(ctx, r); root != nil {
			params.RootObject = root
		}
	}

	result := graphql.Do(params)

	if formatErrorFunc := s.options.FormatErrorFunc; formatErrorFunc != nil && len(result.Errors) > 0 {
		formatted := make([]gqlerrors.FormattedError, len(result.Errors))
		for i, formattedError := range result.Errors {
			formatted[i] = formatErrorFunc(formattedError.OriginalError())
		}
		result.Errors = formatted
	}

	var buff []byte
	if s.options.Pretty {
		buff, _ = json.MarshalIndent(result, "", "\t")
	} else {
		buff, _ = json.Marshal(result)
	}

	w.Header().Add("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(buff)

	if s.options.ResultCallbackFunc != nil {
		s.options.ResultCallbackFunc(ctx, &params, result, buff)
	}
}
