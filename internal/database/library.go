package database

import (
	"fmt"
	"log"

	"gocommunity/internal/models"

	"github.com/surrealdb/surrealdb.go"
)

func (s *service) ListAITools() ([]models.AITool, error) {
	res, err := s.db.Query(`
    SELECT id, title, description, logo_url, tool_url, user_id, created_at,
      (SELECT VALUE category_id FROM ai_tool_categories WHERE tool_id = $parent.id) AS categories
    FROM ai_tools ORDER BY created_at DESC;
    `, map[string]interface{}{})
	if err != nil {
		log.Println(err)
		return nil, err
	}

	tools, err := surrealdb.SmartUnmarshal[[]models.AITool](res, err)
	if err != nil {
		log.Println(err)
		return nil, err
	}

	return tools, nil
}

// CreateAITool writes the tool and its category relations in one transaction.
func (s *service) CreateAITool(tool models.AITool) (models.AITool, error) {
	res, err := s.db.Query(`
      BEGIN TRANSACTION;
      LET $tool = (CREATE ONLY ai_tools CONTENT {
        title: $title,
        description: $description,
        logo_url: $logoURL,
        tool_url: $toolURL,
        user_id: $userId,
        created_at: time::now(),
      } RETURN AFTER);

      FOR $category IN $categories {
        CREATE ai_tool_categories CONTENT {
          tool_id: $tool.id,
          category_id: $category,
        };
      };

      RETURN $tool;
      COMMIT TRANSACTION;
    `, map[string]any{
		"title":       tool.Title,
		"description": tool.Description,
		"logoURL":     tool.LogoURL,
		"toolURL":     tool.ToolURL,
		"userId":      tool.UserId,
		"categories":  tool.Categories,
	})
	if err != nil {
		log.Println(err)
		return models.AITool{}, fmt.Errorf("an error occured while creating the tool")
	}

	created, err := surrealdb.SmartUnmarshal[models.AITool](res, err)
	if err != nil {
		log.Println(err)
		return models.AITool{}, err
	}
	created.Categories = tool.Categories

	return created, nil
}

// UpdateAITool replaces the category relations together with the record
// update; the delete and re-insert never run as separate client calls.
func (s *service) UpdateAITool(tool models.AITool) error {
	_, err := s.db.Query(`
      BEGIN TRANSACTION;
      UPDATE $id SET title=$title, description=$description, logo_url=$logoURL, tool_url=$toolURL;
      DELETE ai_tool_categories WHERE tool_id = $id;
      FOR $category IN $categories {
        CREATE ai_tool_categories CONTENT {
          tool_id: $id,
          category_id: $category,
        };
      };
      COMMIT TRANSACTION;
    `, map[string]any{
		"id":          tool.ID,
		"title":       tool.Title,
		"description": tool.Description,
		"logoURL":     tool.LogoURL,
		"toolURL":     tool.ToolURL,
		"categories":  tool.Categories,
	})
	if err != nil {
		log.Println(err)
		return fmt.Errorf("an error occured while updating the tool")
	}

	return nil
}

func (s *service) DeleteAITool(id string) error {
	_, err := s.db.Query(`
      BEGIN TRANSACTION;
      DELETE ai_tool_categories WHERE tool_id = $id;
      DELETE $id;
      COMMIT TRANSACTION;
    `, map[string]string{
		"id": id,
	})
	if err != nil {
		log.Println(err)
		return fmt.Errorf("an error occured while deleting the tool")
	}

	return nil
}

func (s *service) listLibraryCategories(table string) ([]models.LibraryCategory, error) {
	res, err := s.db.Query("SELECT * FROM "+table+" ORDER BY name ASC", map[string]interface{}{})
	if err != nil {
		log.Println(err)
		return nil, err
	}

	categories, err := surrealdb.SmartUnmarshal[[]models.LibraryCategory](res, err)
	if err != nil {
		log.Println(err)
		return nil, err
	}

	return categories, nil
}

func (s *service) createLibraryCategory(table, name, userId string) (models.LibraryCategory, error) {
	res, err := s.db.Query(`
    CREATE ONLY `+table+` CONTENT {
      name: $name,
      user_id: $userId,
      created_at: time::now(),
    };
    `, map[string]string{
		"name":   name,
		"userId": userId,
	})
	if err != nil {
		log.Println(err)
		return models.LibraryCategory{}, fmt.Errorf("an error occured while creating the category")
	}

	category, err := surrealdb.SmartUnmarshal[models.LibraryCategory](res, err)
	if err != nil {
		log.Println(err)
		return models.LibraryCategory{}, err
	}

	return category, nil
}

func (s *service) ListToolCategories() ([]models.LibraryCategory, error) {
	return s.listLibraryCategories("automation_categories")
}

func (s *service) CreateToolCategory(name, userId string) (models.LibraryCategory, error) {
	return s.createLibraryCategory("automation_categories", name, userId)
}

func (s *service) ListBlueprintCategories() ([]models.LibraryCategory, error) {
	return s.listLibraryCategories("blueprint_categories")
}

func (s *service) CreateBlueprintCategory(name, userId string) (models.LibraryCategory, error) {
	return s.createLibraryCategory("blueprint_categories", name, userId)
}

func (s *service) ListClassCategories() ([]models.LibraryCategory, error) {
	return s.listLibraryCategories("class_categories")
}

func (s *service) CreateClassCategory(name, userId string) (models.LibraryCategory, error) {
	return s.createLibraryCategory("class_categories", name, userId)
}

func (s *service) ListBlueprints() ([]models.Blueprint, error) {
	res, err := s.db.Query("SELECT * FROM blueprints ORDER BY created_at DESC", map[string]interface{}{})
	if err != nil {
		log.Println(err)
		return nil, err
	}

	blueprints, err := surrealdb.SmartUnmarshal[[]models.Blueprint](res, err)
	if err != nil {
		log.Println(err)
		return nil, err
	}

	return blueprints, nil
}

func (s *service) CreateBlueprint(blueprint models.Blueprint) (models.Blueprint, error) {
	res, err := s.db.Query(`
    CREATE ONLY blueprints CONTENT {
      title: $title,
      description: $description,
      logo_url: $logoURL,
      download_url: $downloadURL,
      user_id: $userId,
      categories: $categories,
      created_at: time::now(),
    };
    `, map[string]any{
		"title":       blueprint.Title,
		"description": blueprint.Description,
		"logoURL":     blueprint.LogoURL,
		"downloadURL": blueprint.DownloadURL,
		"userId":      blueprint.UserId,
		"categories":  blueprint.Categories,
	})
	if err != nil {
		log.Println(err)
		return models.Blueprint{}, fmt.Errorf("an error occured while creating the blueprint")
	}

	created, err := surrealdb.SmartUnmarshal[models.Blueprint](res, err)
	if err != nil {
		log.Println(err)
		return models.Blueprint{}, err
	}

	return created, nil
}

func (s *service) UpdateBlueprint(blueprint models.Blueprint) error {
	_, err := s.db.Query(`UPDATE $id SET title=$title, description=$description, logo_url=$logoURL, download_url=$downloadURL, categories=$categories`, map[string]any{
		"id":          blueprint.ID,
		"title":       blueprint.Title,
		"description": blueprint.Description,
		"logoURL":     blueprint.LogoURL,
		"downloadURL": blueprint.DownloadURL,
		"categories":  blueprint.Categories,
	})
	if err != nil {
		log.Println(err)
		return fmt.Errorf("an error occured while updating the blueprint")
	}

	return nil
}

func (s *service) DeleteBlueprint(id string) error {
	_, err := s.db.Query(`DELETE $id`, map[string]string{
		"id": id,
	})
	if err != nil {
		log.Println(err)
		return fmt.Errorf("an error occured while deleting the blueprint")
	}

	return nil
}

func (s *service) ListClasses() ([]models.Class, error) {
	res, err := s.db.Query("SELECT * FROM classes ORDER BY created_at DESC", map[string]interface{}{})
	if err != nil {
		log.Println(err)
		return nil, err
	}

	classes, err := surrealdb.SmartUnmarshal[[]models.Class](res, err)
	if err != nil {
		log.Println(err)
		return nil, err
	}

	return classes, nil
}

func (s *service) CreateClass(class models.Class) (models.Class, error) {
	res, err := s.db.Query(`
    CREATE ONLY classes CONTENT {
      name: $name,
      description: $description,
      video_url: $videoURL,
      user_id: $userId,
      categories: $categories,
      created_at: time::now(),
    };
    `, map[string]any{
		"name":        class.Name,
		"description": class.Description,
		"videoURL":    class.VideoURL,
		"userId":      class.UserId,
		"categories":  class.Categories,
	})
	if err != nil {
		log.Println(err)
		return models.Class{}, fmt.Errorf("an error occured while creating the class")
	}

	created, err := surrealdb.SmartUnmarshal[models.Class](res, err)
	if err != nil {
		log.Println(err)
		return models.Class{}, err
	}

	return created, nil
}

func (s *service) UpdateClass(class models.Class) error {
	_, err := s.db.Query(`UPDATE $id SET name=$name, description=$description, video_url=$videoURL, categories=$categories`, map[string]any{
		"id":          class.ID,
		"name":        class.Name,
		"description": class.Description,
		"videoURL":    class.VideoURL,
		"categories":  class.Categories,
	})
	if err != nil {
		log.Println(err)
		return fmt.Errorf("an error occured while updating the class")
	}

	return nil
}

func (s *service) DeleteClass(id string) error {
	_, err := s.db.Query(`DELETE $id`, map[string]string{
		"id": id,
	})
	if err != nil {
		log.Println(err)
		return fmt.Errorf("an error occured while deleting the class")
	}

	return nil
}
