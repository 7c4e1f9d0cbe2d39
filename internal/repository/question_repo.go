package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// QuestionDoc is the stored shape of a trivia question. correct_answer is
// left untyped because the bank holds a mix of letters ("b"), legacy
// "option_b" strings, and numeric indexes; normalization happens once, in
// the question service.
type QuestionDoc struct {
	ID            string      `bson:"_id,omitempty"`
	Question      string      `bson:"question"`
	OptionA       string      `bson:"option_a"`
	OptionB       string      `bson:"option_b"`
	OptionC       string      `bson:"option_c"`
	OptionD       string      `bson:"option_d"`
	CorrectAnswer interface{} `bson:"correct_answer"`
	Category      string      `bson:"category"`
	FunFact       string      `bson:"fun_fact,omitempty"`
	SnarkyComment string      `bson:"snarky_comment,omitempty"`
}

type QuestionRepo interface {
	Sample(ctx context.Context, count int, category string) ([]QuestionDoc, error)
}

type questionRepo struct {
	collection *mongo.Collection
}

func NewQuestionRepo(db *mongo.Database) QuestionRepo {
	return &questionRepo{
		collection: db.Collection("questions"),
	}
}

// Sample draws count random questions, optionally filtered by category
// ("all" or empty disables the filter). Fewer documents than requested is
// not an error here; the caller decides whether a short batch is fatal.
func (r *questionRepo) Sample(ctx context.Context, count int, category string) ([]QuestionDoc, error) {
	pipeline := mongo.Pipeline{}
	if category != "" && category != "all" {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: bson.D{{Key: "category", Value: category}}}})
	}
	pipeline = append(pipeline, bson.D{{Key: "$sample", Value: bson.D{{Key: "size", Value: count}}}})

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []QuestionDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}
